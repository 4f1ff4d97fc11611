package command

// AuthenticateBrowser runs the browser authenticate round once the 3DS
// method form has been posted or timed out.
type AuthenticateBrowser struct {
	SessionID       string
	MethodCompleted bool
}

func (c AuthenticateBrowser) CommandName() string {
	return "payments.authenticate_browser"
}

// AuthenticateBrowserHandler handles the AuthenticateBrowser command.
type AuthenticateBrowserHandler = Handler[AuthenticateBrowser, BrowserFlowResult]
