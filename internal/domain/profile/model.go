package profile

// UserProfile holds the user's personal details. IsNewUser starts true and is
// cleared by the first checkout; the pharmacy flow reads it to decide on
// first-order behavior.
type UserProfile struct {
	UserID       string `db:"user_id" json:"userId"`
	Name         string `db:"name" json:"name"`
	Age          string `db:"age" json:"age"`
	MobileNumber string `db:"mobile_number" json:"mobileNumber"`
	Address      string `db:"address" json:"address"`
	IsNewUser    bool   `db:"is_new_user" json:"isNewUser"`
}
