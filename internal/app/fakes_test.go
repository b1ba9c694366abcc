package app

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"clan_rank_notifier/internal/domain/member"
	"clan_rank_notifier/internal/domain/notification"
	"clan_rank_notifier/internal/domain/settings"
	idb "clan_rank_notifier/internal/infra/database"

	"gopkg.in/telebot.v3"
)

type fakeMemberRepo struct {
	mu      sync.Mutex
	members []*member.Member
	nextID  int64
	listErr error
	lists   int
}

func (r *fakeMemberRepo) add(name string, joined time.Time, rank string) {
	m := &member.Member{Name: name, IsActive: true}
	if !joined.IsZero() {
		m.JoinDate = sql.NullTime{Time: joined, Valid: true}
	}
	if rank != "" {
		m.RankTitle = sql.NullString{String: rank, Valid: true}
	}
	_ = r.Create(context.Background(), m)
}

func (r *fakeMemberRepo) Create(_ context.Context, m *member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.members {
		if strings.EqualFold(e.Name, m.Name) {
			return idb.ErrDuplicateMemberName
		}
	}
	r.nextID++
	m.ID = r.nextID
	cp := *m
	r.members = append(r.members, &cp)
	return nil
}

func (r *fakeMemberRepo) GetByName(_ context.Context, name string) (*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.members {
		if strings.EqualFold(e.Name, name) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, idb.ErrMemberNotFound
}

func (r *fakeMemberRepo) Update(_ context.Context, m *member.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.members {
		if e.ID == m.ID {
			cp := *m
			r.members[i] = &cp
			return nil
		}
	}
	return idb.ErrMemberNotFound
}

func (r *fakeMemberRepo) ListActive(_ context.Context) ([]*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*member.Member, 0)
	for _, e := range r.members {
		if e.IsActive {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) ListAll(_ context.Context) ([]*member.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*member.Member, 0, len(r.members))
	for _, e := range r.members {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

type fakeSettingsRepo struct {
	mu    sync.Mutex
	saved *settings.Settings
	saves int
}

func (r *fakeSettingsRepo) Get(_ context.Context) (*settings.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		return nil, idb.ErrSettingsNotFound
	}
	cp := *r.saved
	return &cp, nil
}

func (r *fakeSettingsRepo) Save(_ context.Context, s *settings.Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	cp := *s
	r.saved = &cp
	return nil
}

type fakeNotificationRepo struct {
	mu          sync.Mutex
	deliveries  []*notification.Delivery
	purgeCutoff time.Time
}

func (r *fakeNotificationRepo) RecordDeliveries(_ context.Context, ds []*notification.Delivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, ds...)
	return nil
}

func (r *fakeNotificationRepo) ListRecent(_ context.Context, limit int) ([]*notification.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*notification.Delivery, len(r.deliveries))
	copy(out, r.deliveries)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DeliveredAt.After(out[j].DeliveredAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) ListByMembers(ctx context.Context, names []string, limit int) ([]*notification.Delivery, error) {
	all, _ := r.ListRecent(ctx, len(r.deliveries))
	out := make([]*notification.Delivery, 0)
	for _, d := range all {
		for _, n := range names {
			if strings.EqualFold(d.MemberName, strings.TrimSpace(n)) && len(out) < limit {
				out = append(out, d)
			}
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) PurgeBefore(_ context.Context, date time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeCutoff = date
	kept := r.deliveries[:0]
	var removed int64
	for _, d := range r.deliveries {
		if d.NotifiedOn.Before(date) {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	r.deliveries = kept
	return removed, nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegramClient struct {
	mu     sync.Mutex
	sent   []sentMessage
	failOn string // substring that makes SendMessage fail
}

func (c *fakeTelegramClient) SendMessage(_ context.Context, chatID int64, text string, _ *telebot.SendOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOn != "" && strings.Contains(text, c.failOn) {
		return errors.New("telegram unavailable")
	}
	c.sent = append(c.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (c *fakeTelegramClient) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sent))
	for _, m := range c.sent {
		out = append(out, m.text)
	}
	return out
}
