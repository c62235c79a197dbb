package catalog

// RemoteCategory is a category as the remote store reports it.
type RemoteCategory struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Parent int64  `json:"parent"`
}

// RemoteProduct is the remote counterpart of a catalog record. Only the
// fields the reconciler matches on are decoded; the store owns the rest.
type RemoteProduct struct {
	ID         int64         `json:"id"`
	SKU        string        `json:"sku"`
	Name       string        `json:"name"`
	Categories []CategoryRef `json:"categories,omitempty"`
	Images     []ImageRef    `json:"images,omitempty"`
}

// RemoteMedia is an uploaded asset. SourceURL doubles as the identity token
// for dedup: an asset uploaded from a local path stores that path here.
type RemoteMedia struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}

// CategoryNode links a resolved category name to its remote id. A node with
// a parent name must have that parent resolved before it is created.
type CategoryNode struct {
	Name       string
	ParentName string
	RemoteID   int64
}

// CategoryRef references a remote category from a product payload.
type CategoryRef struct {
	ID int64 `json:"id"`
}

// ImageRef references a remote media asset from a product payload.
type ImageRef struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src,omitempty"`
}
