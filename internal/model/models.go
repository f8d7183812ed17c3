package model

// Role values as the backend reports them.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is the logged-in account snapshot returned by the backend.
// The serialized form doubles as the persisted session value.
type User struct {
	Code       string `json:"code"`
	Username   string `json:"username"`
	Department string `json:"department"`
	Division   string `json:"division"`
	Role       string `json:"role"`
}

// IsAdmin reports whether the user may upload, delete and manage accounts.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Valid reports whether a restored session snapshot is usable.
// A snapshot without a code or role is treated as no session at all.
func (u User) Valid() bool { return u.Code != "" && u.Role != "" }

// Content identifies a stored file on the backend, scoped to exactly one
// (department, division) pair. FileType drives viewer selection.
type Content struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	FilePath    string `json:"file_path"`
	FileType    string `json:"file_type"`
	UploadedBy  string `json:"uploaded_by"`
	Department  string `json:"department"`
	Division    string `json:"division"`
	UploadDate  string `json:"upload_date"`
	Description string `json:"description"`
}

// Message is a single chat message. Department and division are optional
// in the payload and default to empty.
type Message struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	SenderID   string `json:"sender_id"`
	Username   string `json:"username"`
	Department string `json:"department,omitempty"`
	Division   string `json:"division,omitempty"`
	Timestamp  string `json:"timestamp"`
}

// UploadRequest carries the fields of a content upload. FilePath is the
// local file to send; the remaining fields become multipart form values.
type UploadRequest struct {
	Title       string
	FilePath    string
	UploadedBy  string
	Department  string
	Division    string
	Description string
}

// NewUser carries the fields of an account-creation request.
type NewUser struct {
	Code       string `json:"code"`
	Username   string `json:"username"`
	Department string `json:"department"`
	Division   string `json:"division"`
	Role       string `json:"role"`
	Password   string `json:"password"`
}

// Viewer identifies how a content item should be presented.
type Viewer int

const (
	ViewerNone     Viewer = iota // unhandled file type
	ViewerExternal               // hand off to the OS (pdf)
	ViewerImage                  // image viewer screen
	ViewerText                   // text viewer screen
)

// ViewerFor maps a content file type to the viewer that handles it.
func ViewerFor(fileType string) Viewer {
	switch fileType {
	case "pdf":
		return ViewerExternal
	case "jpg", "png", "jpeg":
		return ViewerImage
	case "txt":
		return ViewerText
	default:
		return ViewerNone
	}
}
