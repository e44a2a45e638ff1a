package domain

// Channel is a registered channel: ID is the numeric chat id or the handle
// without its leading "@", Name is what menus and signatures show.
type Channel struct {
	ID   string
	Name string
}

type ChannelRepository interface {
	Add(id, name string) error
	Remove(id string) (bool, error)
	Get(id string) (Channel, bool)
	List() []Channel
	Len() int
}
