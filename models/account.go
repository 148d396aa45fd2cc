package models

// Profile is the role specific half of an Account. Only *Patient, *Doctor
// and Admin implement it.
type Profile interface {
	profileRole() Role
}

// Admin carries no extra data.
type Admin struct{}

func (Admin) profileRole() Role { return RoleAdmin }

type Account struct {
	User    User
	Profile Profile
}

// NewAccount pairs a user with its profile. The profile must match the
// user's role.
func NewAccount(user User, profile Profile) (Account, bool) {
	if profile == nil || profile.profileRole() != user.Role {
		return Account{}, false
	}
	return Account{User: user, Profile: profile}, true
}

func (a Account) Role() Role {
	return a.User.Role
}

func (a Account) Patient() (*Patient, bool) {
	p, ok := a.Profile.(*Patient)
	return p, ok
}

func (a Account) Doctor() (*Doctor, bool) {
	d, ok := a.Profile.(*Doctor)
	return d, ok
}
