package models

// Profile is the public record owned 1:1 by a user.
type Profile struct {
	UserID      int64  `json:"userid"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Designation string `json:"designation"`
	Roll        int64  `json:"roll"`
	Image       Blob   `json:"image"`
	Online      bool   `json:"online"`
}

// SignupProfile is the profile payload collected at signup and parked in the
// pending record until the OTP is verified.
type SignupProfile struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Designation string `json:"designation"`
	Roll        int64  `json:"roll"`
	Image       Blob   `json:"image,omitempty"`
}

// ToProfile binds the payload to a freshly created user.
func (p SignupProfile) ToProfile(userID int64) *Profile {
	return &Profile{
		UserID:      userID,
		Name:        p.Name,
		Phone:       p.Phone,
		Email:       p.Email,
		Address:     p.Address,
		Designation: p.Designation,
		Roll:        p.Roll,
		Image:       p.Image,
	}
}

// ProfilePatch lists the profile fields a request wants to change; nil
// fields are left untouched.
type ProfilePatch struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	Address     *string `json:"address"`
	Designation *string `json:"designation"`
	Roll        *int64  `json:"roll"`
	Image       *Blob   `json:"image"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Phone == nil && p.Email == nil && p.Address == nil &&
		p.Designation == nil && p.Roll == nil && p.Image == nil
}
