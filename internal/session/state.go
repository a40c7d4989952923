package session

import "github.com/Raheemullah8/hms-portal/internal/models"

// State is the authenticated session. The zero value is Anonymous.
type State struct {
	User            *models.UserProfile
	Token           string
	IsAuthenticated bool
}

// Anonymous is the signed-out session.
var Anonymous = State{}

// Role is the signed-in user's role, or "" when there is no user.
func (s State) Role() models.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

const (
	ActionLoginSuccess    = "auth/loginSuccess"
	ActionRegisterSuccess = "auth/registerSuccess"
	ActionLogout          = "auth/logout"
	ActionUpdateUser      = "auth/updateUser"
)

// Action is a state transition request.
type Action struct {
	Type  string
	User  *models.UserProfile
	Token string
}

func LoginSuccess(user *models.UserProfile, token string) Action {
	return Action{Type: ActionLoginSuccess, User: user, Token: token}
}

func RegisterSuccess(user *models.UserProfile, token string) Action {
	return Action{Type: ActionRegisterSuccess, User: user, Token: token}
}

func Logout() Action { return Action{Type: ActionLogout} }

func UpdateUser(user *models.UserProfile) Action {
	return Action{Type: ActionUpdateUser, User: user}
}

// Reducer computes the next state. It must not mutate its input.
type Reducer func(State, Action) State

// Reduce is the session reducer. Login and register replace the whole
// session, logout returns to Anonymous, and updateUser replaces only the user.
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionLoginSuccess, ActionRegisterSuccess:
		return State{User: a.User, Token: a.Token, IsAuthenticated: true}
	case ActionLogout:
		return Anonymous
	case ActionUpdateUser:
		s.User = a.User
		return s
	default:
		return s
	}
}

// SoftLogoutReduce keeps the legacy logout, which clears the user but leaves
// the token and the authenticated flag in place.
func SoftLogoutReduce(s State, a Action) State {
	if a.Type == ActionLogout {
		s.User = nil
		return s
	}
	return Reduce(s, a)
}
