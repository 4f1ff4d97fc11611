package model

import (
	domainerror "github.com/0xsj/overwatch-payments/internal/domain/error"
)

// BrowserInfo is the device data a browser submits for risk-based authentication.
type BrowserInfo struct {
	AcceptHeader      string `json:"browserAcceptHeader,omitempty"`
	IPAddress         string `json:"browserIP,omitempty"`
	JavaEnabled       bool   `json:"browserJavaEnabled"`
	JavaScriptEnabled bool   `json:"browserJavascriptEnabled"`
	Language          string `json:"browserLanguage,omitempty"`
	ColorDepth        string `json:"browserColorDepth,omitempty"`
	ScreenHeight      string `json:"browserScreenHeight,omitempty"`
	ScreenWidth       string `json:"browserScreenWidth,omitempty"`
	TimeZone          string `json:"browserTZ,omitempty"`
	UserAgent         string `json:"browserUserAgent,omitempty"`
	ChallengeWindow   string `json:"challengeWindowSize,omitempty"`
}

// MethodData is the authentication service's answer to a 3DS method lookup.
type MethodData struct {
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
	MethodURL            string `json:"threeDSMethodURL,omitempty"`
	MessageVersion       string `json:"messageVersion,omitempty"`
}

func (m *MethodData) HasMethodURL() bool {
	return m != nil && m.MethodURL != ""
}

// BrowserFlowContext tells a browser caller what to render next: a hidden
// fingerprint form, an ACS challenge iframe, or nothing.
type BrowserFlowContext struct {
	PaymentSession              *PaymentSession `json:"paymentSession,omitempty"`
	IsFingerPrintRequired       bool            `json:"isFingerPrintRequired"`
	IsAcsChallengeRequired      bool            `json:"isAcsChallengeRequired"`
	FormActionURL               string          `json:"formActionURL,omitempty"`
	FormInputThreeDSMethodData  string          `json:"formInputThreeDSMethodData,omitempty"`
	FormInputCReq               string          `json:"formInputCReq,omitempty"`
	FormInputThreeDSSessionData string          `json:"formInputThreeDSSessionData,omitempty"`
	ChallengeWindowWidth        string          `json:"challengeWindowWidth,omitempty"`
	ChallengeWindowHeight       string          `json:"challengeWindowHeight,omitempty"`
	TransactionSessionID        string          `json:"transactionSessionId,omitempty"`
	CardHolderInfo              string          `json:"cardHolderInfo,omitempty"`
}

// ChallengeWindow is the iframe size an ACS challenge is rendered in.
type ChallengeWindow struct {
	Size   string
	Width  string
	Height string
}

var challengeWindows = map[string]ChallengeWindow{
	"01": {Size: "01", Width: "250px", Height: "400px"},
	"02": {Size: "02", Width: "390px", Height: "400px"},
	"03": {Size: "03", Width: "500px", Height: "600px"},
	"04": {Size: "04", Width: "600px", Height: "400px"},
	"05": {Size: "05", Width: "100%", Height: "100%"},
}

// LookupChallengeWindow resolves an EMV challenge window size code.
func LookupChallengeWindow(size string) (ChallengeWindow, error) {
	w, ok := challengeWindows[size]
	if !ok {
		return ChallengeWindow{}, domainerror.ErrChallengeWindowSizeInvalid.WithMeta("challenge_window_size", size)
	}
	return w, nil
}

// ChallengeRequest is the CReq posted to the ACS to open the interactive challenge.
type ChallengeRequest struct {
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
	ACSTransID           string `json:"acsTransID"`
	MessageType          string `json:"messageType"`
	MessageVersion       string `json:"messageVersion"`
	ChallengeWindowSize  string `json:"challengeWindowSize"`
}

const MessageTypeCReq = "CReq"

// ThreeDSSessionData is echoed back by the ACS with the challenge result.
type ThreeDSSessionData struct {
	ThreeDSServerTransID string `json:"threeDSServerTransID"`
	ACSTransID           string `json:"acsTransID"`
}

// MethodNotification is the base64 payload submitted with the 3DS method form.
type MethodNotification struct {
	ThreeDSServerTransID         string `json:"threeDSServerTransID"`
	ThreeDSMethodNotificationURL string `json:"threeDSMethodNotificationURL"`
}
