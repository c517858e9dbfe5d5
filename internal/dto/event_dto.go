package dto

// PublishEmbedItemMessage asks the indexer to (re)compute one item embedding.
type PublishEmbedItemMessage struct {
	ItemId uint `json:"item_id"`
}
