package model

// Play is a catalog entry that can be scheduled as performances.
// Genres and Actors are loaded by the repository when the caller asks
// for them; they are nil otherwise.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – title used for filtering (case-insensitive substring).
//  Description – free text.
//  Image       – relative media path of the uploaded poster (nullable).
//  Genres      – genres linked via play_genres.
//  Actors      – actors linked via play_actors.
type Play struct {
    ID          uint64  // plays.id
    Title       string  // plays.title
    Description string  // plays.description
    Image       *string // plays.image (nullable)
    Genres      []Genre
    Actors      []Actor
}

// GenreIDs returns the ids of the loaded genres in order.
func (p Play) GenreIDs() []uint64 {
    out := make([]uint64, 0, len(p.Genres))
    for _, g := range p.Genres {
        out = append(out, g.ID)
    }
    return out
}

// ActorIDs returns the ids of the loaded actors in order.
func (p Play) ActorIDs() []uint64 {
    out := make([]uint64, 0, len(p.Actors))
    for _, a := range p.Actors {
        out = append(out, a.ID)
    }
    return out
}
