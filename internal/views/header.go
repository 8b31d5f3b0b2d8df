package views

import "github.com/jengzang/spotmap-go/internal/session"

// AppName is shown at the left of the header
const AppName = "SpotDrop"

// HeaderModel is the top bar: app name plus the user or a login action
type HeaderModel struct {
	Title    string
	Username string
	Action   string
}

// Header builds the header for a session snapshot
func Header(s session.Snapshot) HeaderModel {
	if s.State == session.Authenticated && s.User != nil {
		return HeaderModel{Title: AppName, Username: s.User.Username, Action: "Logout"}
	}
	return HeaderModel{Title: AppName, Action: "Login"}
}

func (h HeaderModel) String() string {
	if h.Username != "" {
		return h.Title + " | " + h.Username + " [" + h.Action + "]"
	}
	return h.Title + " [" + h.Action + "]"
}
