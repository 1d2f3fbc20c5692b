package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// BlockType discriminates the page block variants.
type BlockType string

// Known block types. Any other non-empty value is a custom block.
const (
	BlockAbout    BlockType = "about"
	BlockServices BlockType = "services"
	BlockReviews  BlockType = "reviews"
	BlockContacts BlockType = "contacts"
)

// BlockImage is a secondary image of a block with its display size.
type BlockImage struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Stat is a label/value pair shown in the about section ("5+", "лет опыта").
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// BlockBody is the per-type payload of a Block. The set of implementations
// is closed: AboutBody, SectionBody, ContactsBody and CustomBody.
type BlockBody interface {
	blockBody()
}

// AboutBody is the "about the master" section.
type AboutBody struct {
	Content *string
	Image   *string
	Images  []BlockImage
	Stats   []Stat
}

// SectionBody is the header of a list section (services, reviews). The list
// items themselves live in their own collections.
type SectionBody struct {
	Content *string
	Image   *string
}

// ContactsBody is the contacts section.
type ContactsBody struct {
	Content *string
	Image   *string
}

// CustomBody is a free-form block of any other type.
type CustomBody struct {
	Content *string
	Image   *string
	Images  []BlockImage
	Stats   []Stat
}

func (AboutBody) blockBody()    {}
func (SectionBody) blockBody()  {}
func (ContactsBody) blockBody() {}
func (CustomBody) blockBody()   {}

// Block is a typed content unit of the public page.
type Block struct {
	ID      string
	Type    BlockType
	Enabled bool
	Title   string
	Order   int
	Body    BlockBody
	Seq     int64
}

// Key returns the primary key.
func (b Block) Key() string { return b.ID }

// Initialize assigns identity on creation.
func (b *Block) Initialize(id string, _ time.Time, seq int64) {
	b.ID = id
	b.Seq = seq
}

// BlockFields is the flat view of a Block used on the wire. Images and Stats
// are structured lists and are omitted when empty.
type BlockFields struct {
	ID        string       `json:"id"`
	BlockType string       `json:"blockType"`
	Enabled   bool         `json:"enabled"`
	Title     string       `json:"title"`
	Content   *string      `json:"content"`
	Image     *string      `json:"image"`
	Images    []BlockImage `json:"images,omitempty"`
	Stats     []Stat       `json:"stats,omitempty"`
	Order     int          `json:"order"`
}

// Fields flattens the block.
func (b Block) Fields() BlockFields {
	f := BlockFields{
		ID:        b.ID,
		BlockType: string(b.Type),
		Enabled:   b.Enabled,
		Title:     b.Title,
		Order:     b.Order,
	}
	switch body := b.Body.(type) {
	case AboutBody:
		f.Content, f.Image = body.Content, body.Image
		f.Images, f.Stats = cloneImages(body.Images), cloneStats(body.Stats)
	case CustomBody:
		f.Content, f.Image = body.Content, body.Image
		f.Images, f.Stats = cloneImages(body.Images), cloneStats(body.Stats)
	case SectionBody:
		f.Content, f.Image = body.Content, body.Image
	case ContactsBody:
		f.Content, f.Image = body.Content, body.Image
	}
	return f
}

// MarshalJSON renders the flat view.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Fields())
}

// Images returns the secondary images of variants that carry them.
func (b Block) Images() []BlockImage {
	switch body := b.Body.(type) {
	case AboutBody:
		return body.Images
	case CustomBody:
		return body.Images
	}
	return nil
}

// supports reports whether a block type accepts the image and stats lists.
// Every type accepts the primary image.
func supports(t BlockType) (images, stats bool) {
	switch t {
	case BlockServices, BlockReviews, BlockContacts:
		return false, false
	default:
		return true, true
	}
}

// BuildBlock validates flat fields and produces the matching variant.
// Fields a variant does not carry must be empty.
func BuildBlock(f BlockFields) (Block, error) {
	t := BlockType(strings.TrimSpace(f.BlockType))
	if t == "" {
		return Block{}, &ValidationError{Field: "blockType", Message: "is required"}
	}
	if strings.TrimSpace(f.Title) == "" {
		return Block{}, &ValidationError{Field: "title", Message: "is required"}
	}
	imgs, sts := supports(t)
	if !imgs && len(f.Images) > 0 {
		return Block{}, &ValidationError{Field: "images", Message: fmt.Sprintf("not supported by %q blocks", t)}
	}
	if !sts && len(f.Stats) > 0 {
		return Block{}, &ValidationError{Field: "stats", Message: fmt.Sprintf("not supported by %q blocks", t)}
	}
	for i, im := range f.Images {
		if strings.TrimSpace(im.Path) == "" {
			return Block{}, &ValidationError{Field: fmt.Sprintf("images[%d].path", i), Message: "is required"}
		}
		if im.Width < 0 || im.Height < 0 {
			return Block{}, &ValidationError{Field: fmt.Sprintf("images[%d]", i), Message: "width and height must be >= 0"}
		}
	}
	for i, st := range f.Stats {
		if strings.TrimSpace(st.Label) == "" {
			return Block{}, &ValidationError{Field: fmt.Sprintf("stats[%d].label", i), Message: "is required"}
		}
	}

	b := Block{
		ID:      f.ID,
		Type:    t,
		Enabled: f.Enabled,
		Title:   f.Title,
		Order:   f.Order,
	}
	switch t {
	case BlockAbout:
		b.Body = AboutBody{Content: f.Content, Image: f.Image, Images: cloneImages(f.Images), Stats: cloneStats(f.Stats)}
	case BlockServices, BlockReviews:
		b.Body = SectionBody{Content: f.Content, Image: f.Image}
	case BlockContacts:
		b.Body = ContactsBody{Content: f.Content, Image: f.Image}
	default:
		b.Body = CustomBody{Content: f.Content, Image: f.Image, Images: cloneImages(f.Images), Stats: cloneStats(f.Stats)}
	}
	return b, nil
}

// BlockPatch is a partial block update. Images and Stats replace the whole
// list when present; an explicit empty list clears it.
type BlockPatch struct {
	BlockType *string       `json:"blockType"`
	Enabled   *bool         `json:"enabled"`
	Title     *string       `json:"title"`
	Content   *string       `json:"content"`
	Image     *string       `json:"image"`
	Images    *[]BlockImage `json:"images"`
	Stats     *[]Stat       `json:"stats"`
	Order     *int          `json:"order"`
}

// Merge applies the patch to the current block and validates the result.
// When the type changes, carried-over fields the new variant does not
// support are dropped; fields supplied in the patch are validated.
func (p BlockPatch) Merge(cur Block) (Block, error) {
	f := cur.Fields()
	if p.BlockType != nil {
		f.BlockType = *p.BlockType
	}
	imgs, sts := supports(BlockType(strings.TrimSpace(f.BlockType)))
	if !imgs {
		f.Images = nil
	}
	if !sts {
		f.Stats = nil
	}
	if p.Enabled != nil {
		f.Enabled = *p.Enabled
	}
	if p.Title != nil {
		f.Title = *p.Title
	}
	setOpt(&f.Content, p.Content)
	setOpt(&f.Image, p.Image)
	if p.Images != nil {
		f.Images = *p.Images
	}
	if p.Stats != nil {
		f.Stats = *p.Stats
	}
	if p.Order != nil {
		f.Order = *p.Order
	}
	out, err := BuildBlock(f)
	if err != nil {
		return Block{}, err
	}
	out.Seq = cur.Seq
	return out, nil
}

// Apply merges the patch onto b. Invalid results leave b unchanged; callers
// validate with Merge first.
func (p BlockPatch) Apply(b *Block) {
	if out, err := p.Merge(*b); err == nil {
		*b = out
	}
}

// BlockRecord is the flat persisted form of a Block. Images and Stats hold
// JSON-encoded lists and are nil when the list is empty.
type BlockRecord struct {
	ID        string  `json:"id"        gorm:"type:char(36);primaryKey"`
	BlockType string  `json:"blockType" gorm:"not null"`
	Enabled   bool    `json:"enabled"`
	Title     string  `json:"title"     gorm:"not null"`
	Content   *string `json:"content"   gorm:"type:text"`
	Image     *string `json:"image"`
	Images    *string `json:"images"    gorm:"type:text"`
	Stats     *string `json:"stats"     gorm:"type:text"`
	Order     int     `json:"order"     gorm:"column:sort_order;index"`
	Seq       int64   `json:"seq"`
}

// TableName returns the database table name for BlockRecord.
func (BlockRecord) TableName() string { return "blocks" }

// Key returns the primary key.
func (r BlockRecord) Key() string { return r.ID }

// EncodeBlock flattens a block for persistence.
func EncodeBlock(b Block) (BlockRecord, error) {
	f := b.Fields()
	rec := BlockRecord{
		ID:        f.ID,
		BlockType: f.BlockType,
		Enabled:   f.Enabled,
		Title:     f.Title,
		Content:   f.Content,
		Image:     f.Image,
		Order:     f.Order,
		Seq:       b.Seq,
	}
	var err error
	if rec.Images, err = encodeList(f.Images); err != nil {
		return BlockRecord{}, fmt.Errorf("encode images: %w", err)
	}
	if rec.Stats, err = encodeList(f.Stats); err != nil {
		return BlockRecord{}, fmt.Errorf("encode stats: %w", err)
	}
	return rec, nil
}

// DecodeBlock restores the variant from its persisted form. Image lists
// stored as plain path strings are accepted with zero dimensions. Fields the
// variant does not carry are ignored.
func DecodeBlock(rec BlockRecord) (Block, error) {
	images, err := decodeImages(rec.Images)
	if err != nil {
		return Block{}, fmt.Errorf("block %s: decode images: %w", rec.ID, err)
	}
	var stats []Stat
	if rec.Stats != nil && strings.TrimSpace(*rec.Stats) != "" {
		if err := json.Unmarshal([]byte(*rec.Stats), &stats); err != nil {
			return Block{}, fmt.Errorf("block %s: decode stats: %w", rec.ID, err)
		}
	}
	t := BlockType(rec.BlockType)
	imgs, sts := supports(t)
	f := BlockFields{
		ID:        rec.ID,
		BlockType: rec.BlockType,
		Enabled:   rec.Enabled,
		Title:     rec.Title,
		Content:   rec.Content,
		Image:     rec.Image,
		Order:     rec.Order,
	}
	if imgs {
		f.Images = images
	}
	if sts {
		f.Stats = stats
	}
	b := Block{ID: f.ID, Type: t, Enabled: f.Enabled, Title: f.Title, Order: f.Order, Seq: rec.Seq}
	switch t {
	case BlockAbout:
		b.Body = AboutBody{Content: f.Content, Image: f.Image, Images: f.Images, Stats: f.Stats}
	case BlockServices, BlockReviews:
		b.Body = SectionBody{Content: f.Content, Image: f.Image}
	case BlockContacts:
		b.Body = ContactsBody{Content: f.Content, Image: f.Image}
	default:
		b.Body = CustomBody{Content: f.Content, Image: f.Image, Images: f.Images, Stats: f.Stats}
	}
	return b, nil
}

func encodeList[E any](items []E) (*string, error) {
	if len(items) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func decodeImages(raw *string) ([]BlockImage, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &items); err != nil {
		return nil, err
	}
	out := make([]BlockImage, 0, len(items))
	for _, it := range items {
		var path string
		if err := json.Unmarshal(it, &path); err == nil {
			out = append(out, BlockImage{Path: path})
			continue
		}
		var im BlockImage
		if err := json.Unmarshal(it, &im); err != nil {
			return nil, err
		}
		out = append(out, im)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func cloneImages(in []BlockImage) []BlockImage {
	if len(in) == 0 {
		return nil
	}
	return append([]BlockImage(nil), in...)
}

func cloneStats(in []Stat) []Stat {
	if len(in) == 0 {
		return nil
	}
	return append([]Stat(nil), in...)
}
