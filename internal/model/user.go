package model

type User struct {
	Login    string `yaml:"user"`
	Password string `yaml:"password"`
}

func (u *User) GetLogin() string {
	if u == nil {
		return ""
	}

	return u.Login
}
