package presence

// User is one present user as exposed to clients. The connection reference
// count is internal to the table and never leaves it.
type User struct {
	Id    string  `json:"id"`
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}
