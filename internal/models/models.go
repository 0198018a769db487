package models

import (
	"time"
)

// Product prices are stored in the minor currency unit (kobo).
type Product struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string `gorm:"not null"                 json:"title"`
	Description string `json:"description"`
	Price       int64  `gorm:"not null"                 json:"price"`
	ImageURL    string `json:"image_url"`
	Instructor  string `json:"instructor"`
	Category    string `json:"category"`
	Brand       string `gorm:"index"                    json:"brand"`
	Duration    string `json:"duration"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	DisplayName  string `json:"display_name"`
}

type Profile struct {
	ID        uint   `gorm:"primaryKey"  json:"id"`
	UserID    uint   `gorm:"uniqueIndex" json:"user_id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type UserRole struct {
	ID     uint   `gorm:"primaryKey"              json:"id"`
	UserID uint   `gorm:"index;not null"          json:"user_id"`
	Role   string `gorm:"not null;default:'user'" json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                         json:"id"`
	UserID    uint `gorm:"index:idx_cart_user_product,unique" json:"user_id"`
	ProductID uint `gorm:"index:idx_cart_user_product,unique" json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"         json:"quantity"`
}

type SavedItem struct {
	ID        uint      `gorm:"primaryKey"                          json:"id"`
	UserID    uint      `gorm:"index:idx_saved_user_product,unique" json:"user_id"`
	ProductID uint      `gorm:"index:idx_saved_user_product,unique" json:"product_id"`
	Brand     string    `json:"brand"`
	CreatedAt time.Time `json:"created_at"`
}

// Purchase rows are written only by the payment webhook, never by
// client-facing handlers.
type Purchase struct {
	ID               uint      `gorm:"primaryKey"     json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	ProductID        uint      `gorm:"not null"       json:"product_id"`
	AmountPaid       int64     `gorm:"not null"       json:"amount_paid"`
	PaymentProvider  string    `json:"payment_provider"`
	PaymentReference string    `gorm:"index"          json:"payment_reference"`
	PurchasedAt      time.Time `json:"purchased_at"`
}

type Notification struct {
	ID               uint      `gorm:"primaryKey"     json:"id"`
	UserID           uint      `gorm:"index;not null" json:"user_id"`
	Title            string    `gorm:"not null"       json:"title"`
	Message          string    `json:"message"`
	Type             string    `json:"type"`
	RelatedProductID *uint     `json:"related_product_id,omitempty"`
	IsRead           bool      `gorm:"default:false"  json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

type CourseLesson struct {
	ID              uint   `gorm:"primaryKey"     json:"id"`
	ProductID       uint   `gorm:"index;not null" json:"product_id"`
	Title           string `gorm:"not null"       json:"title"`
	Position        int    `gorm:"not null"       json:"position"`
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

type WatchProgress struct {
	ID              uint      `gorm:"primaryKey"                            json:"id"`
	UserID          uint      `gorm:"index:idx_progress_user_lesson,unique" json:"user_id"`
	LessonID        uint      `gorm:"index:idx_progress_user_lesson,unique" json:"lesson_id"`
	PositionSeconds int       `json:"position_seconds"`
	Completed       bool      `gorm:"default:false"                         json:"completed"`
	UpdatedAt       time.Time `json:"updated_at"`
}
