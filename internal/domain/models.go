// Package domain defines the entities of the salon site: the settings
// singleton, page blocks, services, reviews, booking requests, notification
// subscribers and uploaded images. The same types are persisted by every
// repo strategy (memory, JSON files, SQL through GORM), so they carry both
// JSON tags (the external API and the file layout) and GORM tags.
package domain

import (
	"time"
)

// Settings is the singleton row holding the master's profile, social links,
// the Telegram bot credential and the admin password hash.
//
// AdminPassword always holds a bcrypt hash. It is never serialized in API
// responses; see Public and Safe.
type Settings struct {
	ID                string  `json:"id"                gorm:"type:char(36);primaryKey"`
	MasterName        string  `json:"masterName"        gorm:"not null"`
	MasterPhone       string  `json:"masterPhone"       gorm:"not null"`
	MasterSignature   string  `json:"masterSignature"   gorm:"not null"`
	MasterDescription string  `json:"masterDescription" gorm:"type:text;not null"`
	MasterPhoto       *string `json:"masterPhoto"`
	ExperienceYears   *string `json:"experienceYears"`
	ExperienceText    *string `json:"experienceText"`
	SatisfiedClients  *string `json:"satisfiedClients"`
	ClientsText       *string `json:"clientsText"`
	TelegramEnabled   bool    `json:"telegramEnabled"`
	TelegramUsername  *string `json:"telegramUsername"`
	WhatsappEnabled   bool    `json:"whatsappEnabled"`
	WhatsappPhone     *string `json:"whatsappPhone"`
	InstagramEnabled  bool    `json:"instagramEnabled"`
	InstagramUsername *string `json:"instagramUsername"`
	BotToken          *string `json:"botToken"`
	Copyright         *string `json:"copyright"`
	AdminPassword     string  `json:"adminPassword"     gorm:"not null"`
}

// TableName returns the database table name for Settings.
func (Settings) TableName() string { return "settings" }

// BotTokenValue returns the configured bot token or "".
func (s Settings) BotTokenValue() string {
	if s.BotToken == nil {
		return ""
	}
	return *s.BotToken
}

// PublicSettings is the subset of Settings safe to expose to anonymous
// visitors: no password hash and no bot credential.
type PublicSettings struct {
	ID                string  `json:"id"`
	MasterName        string  `json:"masterName"`
	MasterPhone       string  `json:"masterPhone"`
	MasterSignature   string  `json:"masterSignature"`
	MasterDescription string  `json:"masterDescription"`
	MasterPhoto       *string `json:"masterPhoto"`
	ExperienceYears   *string `json:"experienceYears"`
	ExperienceText    *string `json:"experienceText"`
	SatisfiedClients  *string `json:"satisfiedClients"`
	ClientsText       *string `json:"clientsText"`
	TelegramEnabled   bool    `json:"telegramEnabled"`
	TelegramUsername  *string `json:"telegramUsername"`
	WhatsappEnabled   bool    `json:"whatsappEnabled"`
	WhatsappPhone     *string `json:"whatsappPhone"`
	InstagramEnabled  bool    `json:"instagramEnabled"`
	InstagramUsername *string `json:"instagramUsername"`
	Copyright         *string `json:"copyright"`
}

// AdminSettings is what the admin panel reads and writes back: everything
// except the password hash.
type AdminSettings struct {
	PublicSettings
	BotToken *string `json:"botToken"`
}

// Public strips the credential fields.
func (s Settings) Public() PublicSettings {
	return PublicSettings{
		ID:                s.ID,
		MasterName:        s.MasterName,
		MasterPhone:       s.MasterPhone,
		MasterSignature:   s.MasterSignature,
		MasterDescription: s.MasterDescription,
		MasterPhoto:       s.MasterPhoto,
		ExperienceYears:   s.ExperienceYears,
		ExperienceText:    s.ExperienceText,
		SatisfiedClients:  s.SatisfiedClients,
		ClientsText:       s.ClientsText,
		TelegramEnabled:   s.TelegramEnabled,
		TelegramUsername:  s.TelegramUsername,
		WhatsappEnabled:   s.WhatsappEnabled,
		WhatsappPhone:     s.WhatsappPhone,
		InstagramEnabled:  s.InstagramEnabled,
		InstagramUsername: s.InstagramUsername,
		Copyright:         s.Copyright,
	}
}

// Safe strips only the password hash.
func (s Settings) Safe() AdminSettings {
	return AdminSettings{PublicSettings: s.Public(), BotToken: s.BotToken}
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
// AdminPassword carries plaintext on the way in; the settings repository
// hashes it before merging.
type SettingsPatch struct {
	MasterName        *string `json:"masterName"`
	MasterPhone       *string `json:"masterPhone"`
	MasterSignature   *string `json:"masterSignature"`
	MasterDescription *string `json:"masterDescription"`
	MasterPhoto       *string `json:"masterPhoto"`
	ExperienceYears   *string `json:"experienceYears"`
	ExperienceText    *string `json:"experienceText"`
	SatisfiedClients  *string `json:"satisfiedClients"`
	ClientsText       *string `json:"clientsText"`
	TelegramEnabled   *bool   `json:"telegramEnabled"`
	TelegramUsername  *string `json:"telegramUsername"`
	WhatsappEnabled   *bool   `json:"whatsappEnabled"`
	WhatsappPhone     *string `json:"whatsappPhone"`
	InstagramEnabled  *bool   `json:"instagramEnabled"`
	InstagramUsername *string `json:"instagramUsername"`
	BotToken          *string `json:"botToken"`
	Copyright         *string `json:"copyright"`
	AdminPassword     *string `json:"adminPassword"`
}

// Apply merges the patch onto s. AdminPassword is copied verbatim; callers
// are responsible for hashing it first.
func (p SettingsPatch) Apply(s *Settings) {
	setStr(&s.MasterName, p.MasterName)
	setStr(&s.MasterPhone, p.MasterPhone)
	setStr(&s.MasterSignature, p.MasterSignature)
	setStr(&s.MasterDescription, p.MasterDescription)
	setOpt(&s.MasterPhoto, p.MasterPhoto)
	setOpt(&s.ExperienceYears, p.ExperienceYears)
	setOpt(&s.ExperienceText, p.ExperienceText)
	setOpt(&s.SatisfiedClients, p.SatisfiedClients)
	setOpt(&s.ClientsText, p.ClientsText)
	setBool(&s.TelegramEnabled, p.TelegramEnabled)
	setOpt(&s.TelegramUsername, p.TelegramUsername)
	setBool(&s.WhatsappEnabled, p.WhatsappEnabled)
	setOpt(&s.WhatsappPhone, p.WhatsappPhone)
	setBool(&s.InstagramEnabled, p.InstagramEnabled)
	setOpt(&s.InstagramUsername, p.InstagramUsername)
	setOpt(&s.BotToken, p.BotToken)
	setOpt(&s.Copyright, p.Copyright)
	setStr(&s.AdminPassword, p.AdminPassword)
}

// Service is an offered procedure shown in the services section. All
// services are public; there is no enablement flag.
type Service struct {
	ID          string  `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string  `json:"name"        gorm:"not null"`
	Description string  `json:"description" gorm:"type:text;not null"`
	Price       string  `json:"price"       gorm:"not null"`
	Icon        *string `json:"icon"`
	Image       *string `json:"image"`
	Order       *int    `json:"order,omitempty" gorm:"column:sort_order"`
	// Seq keeps insertion order stable across strategies.
	Seq int64 `json:"-" gorm:"index"`
}

// TableName returns the database table name for Service.
func (Service) TableName() string { return "services" }

// Key returns the primary key.
func (s Service) Key() string { return s.ID }

// Initialize assigns identity on creation.
func (s *Service) Initialize(id string, _ time.Time, seq int64) {
	s.ID = id
	s.Seq = seq
}

// ServicePatch is a partial service update.
type ServicePatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Icon        *string `json:"icon"`
	Image       *string `json:"image"`
	Order       *int    `json:"order"`
}

// Apply merges the patch onto s.
func (p ServicePatch) Apply(s *Service) {
	setStr(&s.Name, p.Name)
	setStr(&s.Description, p.Description)
	setStr(&s.Price, p.Price)
	setOpt(&s.Icon, p.Icon)
	setOpt(&s.Image, p.Image)
	if p.Order != nil {
		v := *p.Order
		s.Order = &v
	}
}

// Review is a customer testimonial. Reviews are listed newest first.
type Review struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"not null"`
	Text      string    `json:"text"      gorm:"type:text;not null"`
	Photo     *string   `json:"photo"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	Seq       int64     `json:"-"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// Key returns the primary key.
func (r Review) Key() string { return r.ID }

// Initialize assigns identity on creation.
func (r *Review) Initialize(id string, now time.Time, seq int64) {
	r.ID = id
	r.CreatedAt = now
	r.Seq = seq
}

// ReviewPatch is a partial review update.
type ReviewPatch struct {
	Name  *string `json:"name"`
	Text  *string `json:"text"`
	Photo *string `json:"photo"`
}

// Apply merges the patch onto r.
func (p ReviewPatch) Apply(r *Review) {
	setStr(&r.Name, p.Name)
	setStr(&r.Text, p.Text)
	setOpt(&r.Photo, p.Photo)
}

// Request is a booking submission from the public form. Requests are
// append-only: they are created by visitors and only listed by the admin.
type Request struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"      gorm:"not null"`
	Phone     string    `json:"phone"     gorm:"not null"`
	Service   string    `json:"service"   gorm:"not null"`
	Comment   *string   `json:"comment"   gorm:"type:text"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	Seq       int64     `json:"-"`
}

// TableName returns the database table name for Request.
func (Request) TableName() string { return "requests" }

// Key returns the primary key.
func (r Request) Key() string { return r.ID }

// Initialize assigns identity on creation.
func (r *Request) Initialize(id string, now time.Time, seq int64) {
	r.ID = id
	r.CreatedAt = now
	r.Seq = seq
}

// NoPatch is the patch type of append-only collections.
type NoPatch[T any] struct{}

// Apply does nothing.
func (NoPatch[T]) Apply(*T) {}

// Subscriber is a Telegram chat that receives booking notifications.
// ChatID is unique across the collection.
type Subscriber struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	ChatID    string    `json:"chatId"    gorm:"type:varchar(64);not null;uniqueIndex:ux_subscribers_chat_id"`
	Username  *string   `json:"username"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
	Seq       int64     `json:"-"         gorm:"index"`
}

// TableName returns the database table name for Subscriber.
func (Subscriber) TableName() string { return "subscribers" }

// Key returns the primary key.
func (s Subscriber) Key() string { return s.ID }

// Initialize assigns identity on creation.
func (s *Subscriber) Initialize(id string, now time.Time, seq int64) {
	s.ID = id
	s.CreatedAt = now
	s.Seq = seq
}

// DisplayName picks the friendliest available label for logs.
func (s Subscriber) DisplayName() string {
	switch {
	case s.FirstName != nil && *s.FirstName != "":
		return *s.FirstName
	case s.Username != nil && *s.Username != "":
		return *s.Username
	default:
		return s.ChatID
	}
}

// Image is the metadata of an uploaded file. Path is the served URL path
// (e.g. /uploads/<filename>).
type Image struct {
	ID           string    `json:"id"           gorm:"type:char(36);primaryKey"`
	Filename     string    `json:"filename"     gorm:"not null"`
	OriginalName string    `json:"originalName" gorm:"not null"`
	Path         string    `json:"path"         gorm:"not null;index"`
	Size         int64     `json:"size"         gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"    gorm:"index"`
	Seq          int64     `json:"-"`
}

// TableName returns the database table name for Image.
func (Image) TableName() string { return "images" }

// Key returns the primary key.
func (i Image) Key() string { return i.ID }

// Initialize assigns identity on creation.
func (i *Image) Initialize(id string, now time.Time, seq int64) {
	i.ID = id
	i.CreatedAt = now
	i.Seq = seq
}

func setStr(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// setOpt copies an optional value; an explicit empty string clears it.
func setOpt(dst **string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		*dst = nil
		return
	}
	s := *v
	*dst = &s
}
