package dashboard

import (
	"time"

	"github.com/yashjainme/friend-finder-frontend/model"
)

// BannerTTL is how long a transient banner stays up.
const BannerTTL = 1500 * time.Millisecond

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func())

func defaultAfter(d time.Duration, f func()) {
	time.AfterFunc(d, f)
}

// bannerSlot holds at most one message; a newer message replaces the old
// one and a clear scheduled for an older message is a no-op.
type bannerSlot struct {
	text string
	gen  uint64
}

func (s *Synchronizer) showBanner(kind, text string) {
	s.mu.Lock()
	slot := s.banners[kind]
	slot.gen++
	slot.text = text
	gen := slot.gen
	s.banners[kind] = slot
	s.mu.Unlock()

	s.after(s.bannerTTL, func() { s.clearBanner(kind, gen) })
}

func (s *Synchronizer) clearBanner(kind string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.banners[kind]
	if slot.gen == gen {
		slot.text = ""
		s.banners[kind] = slot
	}
}

// visibleBanners returns the error banner first. Callers hold s.mu.
func (s *Synchronizer) visibleBanners() []model.Banner {
	banners := []model.Banner{}
	for _, kind := range []string{model.BannerError, model.BannerSuccess} {
		if text := s.banners[kind].text; text != "" {
			banners = append(banners, model.Banner{Kind: kind, Text: text})
		}
	}
	return banners
}
