package model

// AuthenticationRequest is sent to the authentication service for the
// risk-based authenticate step of either channel.
type AuthenticationRequest struct {
	ProtocolSessionID         string                    `json:"sessionId"`
	AccountID                 string                    `json:"accountId"`
	PaymentInstrumentID       string                    `json:"piid"`
	DeviceChannel             DeviceChannel             `json:"deviceChannel"`
	BrowserInfo               *BrowserInfo              `json:"browserInfo,omitempty"`
	ThreeDSServerTransID      string                    `json:"threeDSServerTransId,omitempty"`
	MethodCompletionIndicator MethodCompletionIndicator `json:"threeDSCompInd,omitempty"`
	NotificationURL           string                    `json:"notificationUrl,omitempty"`
	ChallengeIndicator        ChallengeIndicator        `json:"threeDSRequestorChallengeInd,omitempty"`
	MessageVersion            string                    `json:"messageVersion"`
	Language                  string                    `json:"language,omitempty"`
	SDK                       *SDKInfo                  `json:"sdk,omitempty"`
	IsMOTO                    bool                      `json:"isMoto,omitempty"`
}

// SDKInfo carries the app SDK fields of an app-channel authentication.
type SDKInfo struct {
	AppID               string               `json:"sdkAppID"`
	EncData             string               `json:"sdkEncData"`
	EphemeralPublicKey  string               `json:"sdkEphemPubKey"`
	MaxTimeout          string               `json:"sdkMaxTimeout"`
	ReferenceNumber     string               `json:"sdkReferenceNumber"`
	TransID             string               `json:"sdkTransID"`
	DeviceRenderOptions *DeviceRenderOptions `json:"deviceRenderOptions,omitempty"`
}

type DeviceRenderOptions struct {
	Interface string   `json:"sdkInterface"`
	UIType    []string `json:"sdkUiType"`
}

// AppAuthenticationRequest is the caller's app-channel authenticate input.
type AppAuthenticationRequest struct {
	SDK            SDKInfo `json:"sdk"`
	MessageVersion string  `json:"messageVersion,omitempty"`
	Language       string  `json:"language,omitempty"`
}

// AuthenticationResult is the authentication service's authenticate response.
type AuthenticationResult struct {
	TransStatus          TransactionStatus `json:"transStatus"`
	TransStatusReason    string            `json:"transStatusReason,omitempty"`
	ThreeDSServerTransID string            `json:"threeDSServerTransID,omitempty"`
	ACSTransID           string            `json:"acsTransID,omitempty"`
	ACSURL               string            `json:"acsURL,omitempty"`
	ACSSignedContent     string            `json:"acsSignedContent,omitempty"`
	ACSReferenceNumber   string            `json:"acsReferenceNumber,omitempty"`
	ACSRenderingType     string            `json:"acsRenderingType,omitempty"`
	MessageVersion       string            `json:"messageVersion,omitempty"`
	CardHolderInfo       string            `json:"cardHolderInfo,omitempty"`
	EnrollmentStatus     EnrollmentStatus  `json:"enrollmentStatus,omitempty"`
	TransactionSessionID string            `json:"transactionSessionId,omitempty"`
}

// AuthenticationResponse is returned to app-channel callers.
type AuthenticationResponse struct {
	EnrollmentStatus     EnrollmentStatus  `json:"enrollmentStatus"`
	ChallengeStatus      ChallengeStatus   `json:"challengeStatus"`
	TransStatus          TransactionStatus `json:"transStatus,omitempty"`
	ThreeDSServerTransID string            `json:"threeDSServerTransID,omitempty"`
	ACSTransID           string            `json:"acsTransID,omitempty"`
	ACSSignedContent     string            `json:"acsSignedContent,omitempty"`
	ACSReferenceNumber   string            `json:"acsReferenceNumber,omitempty"`
	ACSRenderingType     string            `json:"acsRenderingType,omitempty"`
	MessageVersion       string            `json:"messageVersion,omitempty"`
	CardHolderInfo       string            `json:"cardHolderInfo,omitempty"`
	DisplayStrings       map[string]string `json:"displayStrings,omitempty"`
}

// NewAuthenticationResponse projects an authenticate result for app callers.
func NewAuthenticationResponse(result *AuthenticationResult, status ChallengeStatus) *AuthenticationResponse {
	resp := &AuthenticationResponse{
		EnrollmentStatus: EnrollmentStatusEnrolled,
		ChallengeStatus:  status,
	}
	if result == nil {
		return resp
	}
	if result.EnrollmentStatus != "" {
		resp.EnrollmentStatus = result.EnrollmentStatus
	}
	resp.TransStatus = result.TransStatus
	resp.ThreeDSServerTransID = result.ThreeDSServerTransID
	resp.ACSTransID = result.ACSTransID
	resp.ACSSignedContent = result.ACSSignedContent
	resp.ACSReferenceNumber = result.ACSReferenceNumber
	resp.ACSRenderingType = result.ACSRenderingType
	resp.MessageVersion = result.MessageVersion
	resp.CardHolderInfo = result.CardHolderInfo
	return resp
}

// CompletionRequest asks the authentication service for the final result
// of an interactive challenge.
type CompletionRequest struct {
	ProtocolSessionID       string            `json:"sessionId"`
	AccountID               string            `json:"accountId,omitempty"`
	AuthorizationParameters map[string]string `json:"authorizationParameters,omitempty"`
}

// CompletionResult is the authentication service's completion response.
type CompletionResult struct {
	TransStatus              TransactionStatus `json:"transStatus"`
	TransStatusReason        string            `json:"transStatusReason,omitempty"`
	ChallengeCancelIndicator string            `json:"challengeCancel,omitempty"`
}

// ThreeDSOneAuthenticationResult is the redirect form for a 3DS1 challenge.
type ThreeDSOneAuthenticationResult struct {
	TransStatus TransactionStatus `json:"transStatus"`
	RedirectURL string            `json:"redirectUrl,omitempty"`
	FormFields  map[string]string `json:"formFields,omitempty"`
}

// ThreeDSOneChallenge is returned to callers of the 3DS1 authenticate round.
type ThreeDSOneChallenge struct {
	PaymentSession *PaymentSession   `json:"paymentSession"`
	RedirectURL    string            `json:"redirectUrl,omitempty"`
	FormFields     map[string]string `json:"formFields,omitempty"`
}
