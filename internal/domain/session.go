package domain

// ChatSession is a saved, named conversation distinct from the currently
// active one. The id is stable for the lifetime of the conversation.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt int64     `json:"createdAt"` // unix milliseconds
}
