package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/LJTian/HeraldHub/internal/config"
)

// 渠道状态
const (
	ChannelActive   = "active"
	ChannelDisabled = "disabled"
)

// Channel 描述一个新闻源，对应目录中的一条 Source
type Channel struct {
	ID       uint              `gorm:"primaryKey" json:"id"`
	Code     string            `gorm:"size:64;uniqueIndex" json:"code"` // 例如: cbc-ham, reddit
	Name     string            `gorm:"size:128" json:"name"`
	BaseURL  string            `gorm:"size:512" json:"baseUrl"`
	Status   string            `gorm:"size:32;index" json:"status"` // active / disabled
	Category string            `gorm:"size:64;index" json:"category"`
	Meta     datatypes.JSONMap `gorm:"type:jsonb" json:"meta"` // icon / color 等展示信息
	Position int               `gorm:"index" json:"position"`  // 目录中的顺序，决定合并与去重的先后

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EnsureChannel 确保某个渠道存在；已存在时不覆盖，便于在库中手动停用或调整
func (s *Store) EnsureChannel(src config.Source, position int) (*Channel, error) {
	if s.DB == nil {
		return nil, errors.New("storage: database not configured")
	}

	ch := &Channel{}
	err := s.DB.Where("code = ?", src.ID).First(ch).Error
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ch = sourceToChannel(src, position)
	if err := s.DB.Create(ch).Error; err != nil {
		return nil, err
	}
	return ch, nil
}

// SeedChannels 按目录顺序写入缺失的渠道
func (s *Store) SeedChannels(sources []config.Source) error {
	for i, src := range sources {
		if _, err := s.EnsureChannel(src, i); err != nil {
			return fmt.Errorf("ensure channel %s: %w", src.ID, err)
		}
	}
	return nil
}

// ActiveSources 读取启用中的渠道，按目录顺序返回
func (s *Store) ActiveSources() ([]config.Source, error) {
	if s.DB == nil {
		return nil, errors.New("storage: database not configured")
	}

	var list []Channel
	if err := s.DB.Where("status = ?", ChannelActive).Order("position ASC").Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}

	out := make([]config.Source, 0, len(list))
	for _, ch := range list {
		out = append(out, channelToSource(ch))
	}
	return out, nil
}

// ResolveSources 未配置数据库时直接使用目录；否则先把目录写入缺失的渠道，再以库中启用的渠道为准。
// 最终列表与访问路径一起校验，库中被改坏的渠道在启动时即报错
func (s *Store) ResolveSources(catalog []config.Source, paths []config.AccessPath) ([]config.Source, error) {
	sources := catalog
	if s.DB != nil {
		if err := s.SeedChannels(catalog); err != nil {
			return nil, err
		}
		active, err := s.ActiveSources()
		if err != nil {
			return nil, fmt.Errorf("load active channels: %w", err)
		}
		if len(active) == 0 {
			return nil, errors.New("storage: no active channels")
		}
		sources = active
	}
	if err := config.Validate(sources, paths); err != nil {
		return nil, err
	}
	return sources, nil
}

func sourceToChannel(src config.Source, position int) *Channel {
	return &Channel{
		Code:     src.ID,
		Name:     src.Name,
		BaseURL:  src.URL,
		Status:   ChannelActive,
		Category: src.Category,
		Meta: datatypes.JSONMap{
			"icon":  src.Icon,
			"color": src.Color,
		},
		Position: position,
	}
}

func channelToSource(ch Channel) config.Source {
	meta := func(key string) string {
		v, _ := ch.Meta[key].(string)
		return v
	}
	return config.Source{
		ID:       ch.Code,
		Name:     ch.Name,
		Icon:     meta("icon"),
		Color:    meta("color"),
		URL:      ch.BaseURL,
		Category: ch.Category,
	}
}
