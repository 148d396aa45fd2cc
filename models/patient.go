package models

type BloodType string

const (
	BloodAPos  BloodType = "A_POS"
	BloodANeg  BloodType = "A_NEG"
	BloodBPos  BloodType = "B_POS"
	BloodBNeg  BloodType = "B_NEG"
	BloodABPos BloodType = "AB_POS"
	BloodABNeg BloodType = "AB_NEG"
	BloodOPos  BloodType = "O_POS"
	BloodONeg  BloodType = "O_NEG"
)

func (b BloodType) Valid() bool {
	switch b {
	case BloodAPos, BloodANeg, BloodBPos, BloodBNeg, BloodABPos, BloodABNeg, BloodOPos, BloodONeg:
		return true
	}
	return false
}

// Patient shares its primary key with the owning user row.
type Patient struct {
	UserID      uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	User        User      `json:"user" gorm:"foreignKey:UserID"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Height      *float64  `json:"height,omitempty"`
	Weight      *float64  `json:"weight,omitempty"`
	BloodType   BloodType `json:"blood_type,omitempty" gorm:"type:varchar(8)"`
	Conditions  string    `json:"conditions,omitempty" gorm:"type:text"`
}

func (*Patient) profileRole() Role { return RolePatient }
