package Models

// User is the directory entry the engine stamps audit entries with.
// Permission levels: 1 staff, 3 site manager, 4 admin.
type User struct {
	Id         uint   `json:"id" gorm:"primaryKey"`
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"uniqueIndex;not null"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission"`
	SiteID     *uint  `json:"site_id"`
}
