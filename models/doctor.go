package models

type Doctor struct {
	UserID              uint   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	User                User   `json:"user" gorm:"foreignKey:UserID"`
	Specialization      string `json:"specialization" gorm:"index"`
	StartedPracticingAt *Date  `json:"started_practicing_at,omitempty"`
	Education           string `json:"education,omitempty"`
	Bio                 string `json:"bio,omitempty" gorm:"type:text"`
}

func (*Doctor) profileRole() Role { return RoleDoctor }
