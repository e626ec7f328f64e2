package staff

// MemberView is the directory entry shown on the login picker and the
// admin page. PIN hashes never leave the database layer.
type MemberView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
