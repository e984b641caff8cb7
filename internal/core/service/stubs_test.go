package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/netbar/billing-system/internal/core/domain"
	"github.com/netbar/billing-system/internal/core/ports"
)

// In-memory repositories shared by the service tests.

type stubAdminRepo struct {
	admins map[string]*domain.Admin
	nextID int64
}

func newStubAdminRepo() *stubAdminRepo {
	return &stubAdminRepo{admins: make(map[string]*domain.Admin)}
}

func (r *stubAdminRepo) Create(_ context.Context, a *domain.Admin) (*domain.Admin, error) {
	if _, exists := r.admins[a.Username]; exists {
		return nil, domain.ErrAdminExists
	}
	r.nextID++
	cp := *a
	cp.ID = r.nextID
	r.admins[a.Username] = &cp
	out := cp
	return &out, nil
}

func (r *stubAdminRepo) FindByUsername(_ context.Context, username string) (*domain.Admin, error) {
	a, ok := r.admins[username]
	if !ok {
		return nil, domain.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

type stubRevoker struct {
	revoked map[string]time.Duration
}

func (r *stubRevoker) Revoke(_ context.Context, id string, ttl time.Duration) error {
	if r.revoked == nil {
		r.revoked = make(map[string]time.Duration)
	}
	r.revoked[id] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := r.revoked[id]
	return ok, nil
}

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
	// failAdjust makes the next negative AdjustBalance fail.
	failAdjust error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	return &cp
}

func (r *stubUserRepo) put(u *domain.User) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	}
	r.users[u.ID] = cloneUser(u)
	return u
}

func (r *stubUserRepo) get(id int64) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneUser(r.users[id])
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.put(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByIdentityCard(_ context.Context, card string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.IdentityCard == card {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	cur.Name, cur.IdentityCard, cur.PhoneNumber, cur.PasswordHash = u.Name, u.IdentityCard, u.PhoneNumber, u.PasswordHash
	return nil
}

func (r *stubUserRepo) SetStatus(_ context.Context, id int64, from, to domain.UserStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if cur.Status != from {
		return domain.ErrUserOnline
	}
	cur.Status = to
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) List(_ context.Context, f ports.UserFilter) ([]*domain.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for id := int64(1); id <= r.nextID; id++ {
		u, ok := r.users[id]
		if !ok {
			continue
		}
		if f.Name != "" && !strings.Contains(u.Name, f.Name) {
			continue
		}
		if f.Status != "" && string(u.Status) != f.Status {
			continue
		}
		out = append(out, cloneUser(u))
	}
	total := int64(len(out))
	start := (f.PageNum - 1) * f.PageSize
	if start >= len(out) {
		return nil, total, nil
	}
	end := min(start+f.PageSize, len(out))
	return out[start:end], total, nil
}

func (r *stubUserRepo) Stats(_ context.Context) (*domain.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &domain.UserStats{TotalUsers: int64(len(r.users))}
	for _, u := range r.users {
		switch u.Status {
		case domain.UserOnline:
			s.OnlineUsers++
		case domain.UserBanned:
			s.BannedUsers++
		}
	}
	return s, nil
}

func (r *stubUserRepo) ListOnline(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for id := int64(1); id <= r.nextID; id++ {
		if u, ok := r.users[id]; ok && u.Status == domain.UserOnline {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) AdjustBalance(ctx context.Context, id int64, delta float64) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if delta < 0 && r.failAdjust != nil {
		err := r.failAdjust
		r.failAdjust = nil
		return nil, err
	}
	if u.Balance+delta < 0 {
		return nil, domain.ErrInsufficientBalance
	}
	u.Balance = domain.RoundMoney(u.Balance + delta)
	return cloneUser(u), nil
}

func (r *stubUserRepo) StartSession(_ context.Context, id, machineID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Status != domain.UserOffline {
		return domain.ErrUserOnline
	}
	u.Status = domain.UserOnline
	u.MachineID = &machineID
	u.LastOnComputerTime = &at
	return nil
}

func (r *stubUserRepo) EndSession(_ context.Context, id int64, charge float64, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if u.Status != domain.UserOnline {
		return nil, domain.ErrUserOffline
	}
	u.Status = domain.UserOffline
	u.MachineID = nil
	u.LastOffComputerTime = &at
	u.Balance = domain.RoundMoney(u.Balance - charge)
	return cloneUser(u), nil
}

type stubZoneRepo struct {
	zones  map[int64]*domain.Zone
	nextID int64
}

func newStubZoneRepo() *stubZoneRepo {
	return &stubZoneRepo{zones: make(map[int64]*domain.Zone)}
}

func (r *stubZoneRepo) Create(_ context.Context, z *domain.Zone) error {
	r.nextID++
	z.ID = r.nextID
	cp := *z
	r.zones[z.ID] = &cp
	return nil
}

func (r *stubZoneRepo) FindByID(_ context.Context, id int64) (*domain.Zone, error) {
	z, ok := r.zones[id]
	if !ok {
		return nil, domain.ErrZoneNotFound
	}
	cp := *z
	return &cp, nil
}

func (r *stubZoneRepo) FindByName(_ context.Context, name string) (*domain.Zone, error) {
	for _, z := range r.zones {
		if z.Name == name {
			cp := *z
			return &cp, nil
		}
	}
	return nil, domain.ErrZoneNotFound
}

func (r *stubZoneRepo) Update(_ context.Context, z *domain.Zone) error {
	if _, ok := r.zones[z.ID]; !ok {
		return domain.ErrZoneNotFound
	}
	cp := *z
	r.zones[z.ID] = &cp
	return nil
}

func (r *stubZoneRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.zones[id]; !ok {
		return domain.ErrZoneNotFound
	}
	delete(r.zones, id)
	return nil
}

func (r *stubZoneRepo) List(_ context.Context) ([]*domain.Zone, error) {
	var out []*domain.Zone
	for id := int64(1); id <= r.nextID; id++ {
		if z, ok := r.zones[id]; ok {
			cp := *z
			out = append(out, &cp)
		}
	}
	return out, nil
}

type stubMachineRepo struct {
	mu       sync.Mutex
	machines map[int64]*domain.Machine
	nextID   int64
}

func newStubMachineRepo() *stubMachineRepo {
	return &stubMachineRepo{machines: make(map[int64]*domain.Machine)}
}

func (r *stubMachineRepo) get(id int64) *domain.Machine {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.machines[id]
	return &cp
}

func (r *stubMachineRepo) Create(_ context.Context, m *domain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	cp := *m
	r.machines[m.ID] = &cp
	return nil
}

func (r *stubMachineRepo) FindByID(_ context.Context, id int64) (*domain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[id]
	if !ok {
		return nil, domain.ErrMachineNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *stubMachineRepo) FindByName(_ context.Context, name string) (*domain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.machines {
		if m.Name == name {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrMachineNotFound
}

func (r *stubMachineRepo) Update(_ context.Context, m *domain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.machines[m.ID]
	if !ok {
		return domain.ErrMachineNotFound
	}
	cur.Name, cur.ZoneID, cur.IPAddress = m.Name, m.ZoneID, m.IPAddress
	return nil
}

func (r *stubMachineRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[id]; !ok {
		return domain.ErrMachineNotFound
	}
	delete(r.machines, id)
	return nil
}

func (r *stubMachineRepo) List(_ context.Context, f ports.MachineFilter) ([]*domain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Machine
	for id := int64(1); id <= r.nextID; id++ {
		m, ok := r.machines[id]
		if !ok || (f.ZoneID != 0 && m.ZoneID != f.ZoneID) || (f.Status != "" && string(m.Status) != f.Status) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubMachineRepo) CountByZone(_ context.Context, zoneID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.machines {
		if m.ZoneID == zoneID {
			n++
		}
	}
	return n, nil
}

func (r *stubMachineRepo) Stats(_ context.Context) (*domain.MachineStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &domain.MachineStats{TotalMachines: int64(len(r.machines))}
	for _, m := range r.machines {
		switch m.Status {
		case domain.MachineIdle:
			s.IdleMachines++
		case domain.MachineOccupied:
			s.OccupiedMachines++
		case domain.MachineAbnormal:
			s.AbnormalMachines++
		}
	}
	return s, nil
}

func (r *stubMachineRepo) Occupy(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[id]
	if !ok {
		return domain.ErrMachineNotFound
	}
	if m.Status != domain.MachineIdle {
		return domain.ErrMachineBusy
	}
	m.Status = domain.MachineOccupied
	m.CurrentUserID = &userID
	return nil
}

func (r *stubMachineRepo) Release(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[id]
	if !ok {
		return domain.ErrMachineNotFound
	}
	if m.Status == domain.MachineOccupied {
		m.Status = domain.MachineIdle
	}
	m.CurrentUserID = nil
	return nil
}

func (r *stubMachineRepo) SetStatus(_ context.Context, id int64, status domain.MachineStatus, from ...domain.MachineStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.machines[id]
	if !ok {
		return domain.ErrMachineNotFound
	}
	for _, f := range from {
		if m.Status == f {
			m.Status = status
			return nil
		}
	}
	return domain.ErrMachineBusy
}

type stubCommodityRepo struct {
	items  map[int64]*domain.Commodity
	nextID int64
}

func newStubCommodityRepo() *stubCommodityRepo {
	return &stubCommodityRepo{items: make(map[int64]*domain.Commodity)}
}

func (r *stubCommodityRepo) Create(_ context.Context, c *domain.Commodity) error {
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *stubCommodityRepo) FindByID(_ context.Context, id int64) (*domain.Commodity, error) {
	c, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCommodityNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCommodityRepo) Update(_ context.Context, c *domain.Commodity) error {
	if _, ok := r.items[c.ID]; !ok {
		return domain.ErrCommodityNotFound
	}
	cp := *c
	r.items[c.ID] = &cp
	return nil
}

func (r *stubCommodityRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrCommodityNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *stubCommodityRepo) List(_ context.Context, name string) ([]*domain.Commodity, error) {
	var out []*domain.Commodity
	for id := int64(1); id <= r.nextID; id++ {
		if c, ok := r.items[id]; ok && strings.Contains(c.Name, name) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubCommodityRepo) AdjustStock(ctx context.Context, id int64, delta int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, ok := r.items[id]
	if !ok {
		return domain.ErrCommodityNotFound
	}
	if c.Stock+delta < 0 {
		return domain.ErrInsufficientStock
	}
	c.Stock += delta
	return nil
}

type stubOrderRepo struct {
	orders    map[int64]*domain.Order
	nextID    int64
	failWrite error
	// beforeWrite runs at the start of Create.
	beforeWrite func()
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[int64]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) error {
	if r.beforeWrite != nil {
		r.beforeWrite()
	}
	if r.failWrite != nil {
		return r.failWrite
	}
	r.nextID++
	o.ID = r.nextID
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) Search(_ context.Context, f ports.OrderFilter) ([]*domain.Order, int64, error) {
	var out []*domain.Order
	for id := int64(1); id <= r.nextID; id++ {
		o, ok := r.orders[id]
		if !ok || (f.Status != "" && string(o.Status) != f.Status) || (f.UserID != 0 && o.UserID != f.UserID) {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) CountByStatus(_ context.Context, status domain.OrderStatus) (int64, error) {
	var n int64
	for _, o := range r.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *stubOrderRepo) UpdateStatus(_ context.Context, id int64, from, to domain.OrderStatus, at time.Time) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidTransition
	}
	o.Status = to
	o.HandledAt = &at
	return nil
}

func (r *stubOrderRepo) SalesReport(_ context.Context, from, to time.Time, _ int) (*domain.SalesReport, error) {
	rep := &domain.SalesReport{From: from, To: to}
	for _, o := range r.orders {
		if o.Status == domain.OrderCompleted {
			rep.Orders++
			rep.Revenue += o.TotalPrice
		}
	}
	return rep, nil
}

type stubMessageRepo struct {
	msgs   map[int64]*domain.Message
	nextID int64
}

func newStubMessageRepo() *stubMessageRepo {
	return &stubMessageRepo{msgs: make(map[int64]*domain.Message)}
}

func (r *stubMessageRepo) Create(_ context.Context, m *domain.Message) error {
	r.nextID++
	m.ID = r.nextID
	cp := *m
	r.msgs[m.ID] = &cp
	return nil
}

func (r *stubMessageRepo) FindByID(_ context.Context, id int64) (*domain.Message, error) {
	m, ok := r.msgs[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *stubMessageRepo) ListPending(_ context.Context) ([]*domain.Message, error) {
	var out []*domain.Message
	for id := int64(1); id <= r.nextID; id++ {
		if m, ok := r.msgs[id]; ok && m.Status == domain.MessagePending {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubMessageRepo) FindPendingByMachine(_ context.Context, machineID int64) (*domain.Message, error) {
	for _, m := range r.msgs {
		if m.MachineID == machineID && m.Status == domain.MessagePending {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func (r *stubMessageRepo) UpdateStatus(_ context.Context, id int64, from, to domain.MessageStatus) error {
	m, ok := r.msgs[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	if m.Status != from {
		return domain.ErrInvalidTransition
	}
	m.Status = to
	return nil
}

type stubLogRepo struct {
	mu      sync.Mutex
	entries []*domain.LogEntry
}

func (r *stubLogRepo) Insert(_ context.Context, e *domain.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, e)
	return nil
}

func (r *stubLogRepo) List(_ context.Context, f ports.LogFilter) ([]*domain.LogEntry, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.LogEntry
	for _, e := range r.entries {
		if (f.Kind == "" || e.Kind == f.Kind) && (f.Action == "" || e.Action == f.Action) {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubLogRepo) actions(kind domain.LogKind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Kind == kind {
			out = append(out, e.Action)
		}
	}
	return out
}

type stubIdempotency struct {
	claimed map[string]bool
}

func (s *stubIdempotency) Claim(_ context.Context, scope, key string) (bool, error) {
	if s.claimed == nil {
		s.claimed = make(map[string]bool)
	}
	k := scope + ":" + key
	if s.claimed[k] {
		return false, nil
	}
	s.claimed[k] = true
	return true, nil
}

func (s *stubIdempotency) Release(_ context.Context, scope, key string) error {
	delete(s.claimed, scope+":"+key)
	return nil
}

type publishedEvent struct {
	subject string
	payload any
}

type stubPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *stubPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{subject, payload})
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func (p *stubPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.subject)
	}
	return out
}
