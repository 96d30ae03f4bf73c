package model

import "time"

// Feed 半可信内容源(RSS/Atom),抓取到的条目与普通提交走同一条审核管线
type Feed struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	URL       string    `gorm:"size:500;uniqueIndex;not null" json:"url"`
	Enabled   bool      `gorm:"default:true" json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity 该内容源在限流/审计中使用的提交者身份
func (f *Feed) Identity() string {
	return "feed:" + f.Name
}
