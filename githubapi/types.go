package githubapi

import "time"

// User is the subset of a GitHub account the review flow needs.
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
	Type  string `json:"type"`
}

// Ref is one side of a pull request (head or base).
type Ref struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// PullRequest is the metadata returned by the pulls endpoint.
type PullRequest struct {
	Number    int       `json:"number"`
	State     string    `json:"state"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	User      User      `json:"user"`
	Head      Ref       `json:"head"`
	Base      Ref       `json:"base"`
	Draft     bool      `json:"draft"`
	Merged    bool      `json:"merged"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReviewComment is an inline comment on a pull request diff.
type ReviewComment struct {
	ID          int64     `json:"id"`
	Body        string    `json:"body"`
	Path        string    `json:"path"`
	Line        int       `json:"line"`
	Side        string    `json:"side"`
	CommitID    string    `json:"commit_id"`
	User        User      `json:"user"`
	InReplyToID int64     `json:"in_reply_to_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IssueComment is a top-level comment on an issue or pull request.
type IssueComment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// FileCommit is the result of a contents API create-or-update call.
type FileCommit struct {
	Content *FileContent `json:"content"`
	Commit  CommitInfo   `json:"commit"`
}

// FileContent identifies a blob in the repository.
type FileContent struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// CommitInfo identifies the commit created by a contents API write.
type CommitInfo struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// Reaction is an emoji reaction on a comment.
type Reaction struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
	User    User   `json:"user"`
}

// ReviewCommentRequest holds the fields for a new inline comment.
type ReviewCommentRequest struct {
	Body      string `json:"body"`
	CommitSHA string `json:"commit_id"`
	Path      string `json:"path"`
	Line      int    `json:"line"`
	Side      string `json:"side"`
}
