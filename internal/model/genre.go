package model

// Genre is a label attached to plays (many-to-many).
type Genre struct {
    ID   uint64 // genres.id
    Name string // genres.name (unique)
}
