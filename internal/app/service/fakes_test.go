package service

import (
	"codecollab/internal/app/realtime"
	"codecollab/internal/common"
	"codecollab/internal/domain/model"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

// The fakes below keep copies of what they store, like a database would, so services
// only see their writes after calling Update.

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

// txOwnerKey marks a caller's context so memChallengeRepo can hold pair locks for it.
type txOwnerKey struct{}

// lockingTransactor releases the pair locks taken during fn, like a commit would.
type lockingTransactor struct {
	challenges *memChallengeRepo
}

func (t lockingTransactor) WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	defer t.challenges.releaseLocks(ctx)
	return fn(nil)
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserRepo(users ...model.User) *memUserRepo {
	r := &memUserRepo{users: map[string]model.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return common.ErrConflict
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &u, nil
}

func (r *memUserRepo) UpdateGithub(_ context.Context, id, username, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.GithubUsername = &username
	u.GithubToken = &token
	r.users[id] = u
	return nil
}

func (r *memUserRepo) AddPoints(_ context.Context, _ *sqlx.Tx, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrNotFound
	}
	u.Points += delta
	r.users[id] = u
	return nil
}

func (r *memUserRepo) points(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id].Points
}

type memBadgeRepo struct {
	badges []model.UserBadge
}

func (r *memBadgeRepo) Create(_ context.Context, badge *model.UserBadge) error {
	r.badges = append(r.badges, *badge)
	return nil
}

func (r *memBadgeRepo) ListByUser(_ context.Context, userID string) ([]model.UserBadge, error) {
	var out []model.UserBadge
	for _, b := range r.badges {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

type memProjectRepo struct {
	mu       sync.Mutex
	projects map[string]model.Project
}

func newMemProjectRepo(projects ...model.Project) *memProjectRepo {
	r := &memProjectRepo{projects: map[string]model.Project{}}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (r *memProjectRepo) Create(_ context.Context, p *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = *p
	return nil
}

func (r *memProjectRepo) FindByID(_ context.Context, id string) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *memProjectRepo) ListVisible(_ context.Context, userID string) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Project
	for _, p := range r.projects {
		if p.UserID == userID || p.IsPublic {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memProjectRepo) Update(_ context.Context, p *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[p.ID]; !ok {
		return common.ErrNotFound
	}
	r.projects[p.ID] = *p
	return nil
}

func (r *memProjectRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.CodingSession
	updates  int
}

func newMemSessionRepo(sessions ...*model.CodingSession) *memSessionRepo {
	r := &memSessionRepo{sessions: map[string]model.CodingSession{}}
	for _, s := range sessions {
		r.sessions[s.ID] = cloneSession(*s)
	}
	return r
}

func cloneSession(s model.CodingSession) model.CodingSession {
	s.Participants = append(model.ParticipantSet{}, s.Participants...)
	return s
}

func (r *memSessionRepo) Create(_ context.Context, s *model.CodingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = cloneSession(*s)
	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id string) (*model.CodingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	s = cloneSession(s)
	return &s, nil
}

func (r *memSessionRepo) FindByIDForUpdate(ctx context.Context, _ *sqlx.Tx, id string) (*model.CodingSession, error) {
	return r.FindByID(ctx, id)
}

func (r *memSessionRepo) ListByProject(_ context.Context, projectID string) ([]model.CodingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CodingSession
	for _, s := range r.sessions {
		if s.ProjectID == projectID {
			out = append(out, cloneSession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memSessionRepo) Update(_ context.Context, _ *sqlx.Tx, s *model.CodingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; !ok {
		return common.ErrNotFound
	}
	r.sessions[s.ID] = cloneSession(*s)
	r.updates++
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *memSessionRepo) stored(id string) model.CodingSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneSession(r.sessions[id])
}

type memChallengeRepo struct {
	mu          sync.Mutex
	users       *memUserRepo
	challenges  map[string]model.Challenge
	submissions []model.ChallengeSubmission // insertion order
	clock       func() time.Time
	afterList   func()

	lockMu    sync.Mutex
	pairLocks map[string]*sync.Mutex
	held      map[interface{}][]*sync.Mutex
}

func newMemChallengeRepo(users *memUserRepo, challenges ...model.Challenge) *memChallengeRepo {
	r := &memChallengeRepo{
		users:      users,
		challenges: map[string]model.Challenge{},
		clock:      time.Now,
		pairLocks:  map[string]*sync.Mutex{},
		held:       map[interface{}][]*sync.Mutex{},
	}
	for _, c := range challenges {
		r.challenges[c.ID] = c
	}
	return r
}

func (r *memChallengeRepo) Create(_ context.Context, c *model.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.challenges[c.ID] = *c
	return nil
}

func (r *memChallengeRepo) FindByID(_ context.Context, id string) (*model.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.challenges[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &c, nil
}

func (r *memChallengeRepo) ListOpen(_ context.Context, now time.Time) ([]model.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Challenge
	for _, c := range r.challenges {
		if c.IsOpenForSubmission(now) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memChallengeRepo) Update(_ context.Context, c *model.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[c.ID]; !ok {
		return common.ErrNotFound
	}
	r.challenges[c.ID] = *c
	return nil
}

func (r *memChallengeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.challenges[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.challenges, id)
	return nil
}

// LockSubmission only locks for callers marked with txOwnerKey; others run unserialized.
func (r *memChallengeRepo) LockSubmission(ctx context.Context, _ *sqlx.Tx, challengeID, userID string) error {
	owner := ctx.Value(txOwnerKey{})
	if owner == nil {
		return nil
	}
	r.lockMu.Lock()
	m, ok := r.pairLocks[challengeID+":"+userID]
	if !ok {
		m = &sync.Mutex{}
		r.pairLocks[challengeID+":"+userID] = m
	}
	r.lockMu.Unlock()

	m.Lock()
	r.lockMu.Lock()
	r.held[owner] = append(r.held[owner], m)
	r.lockMu.Unlock()
	return nil
}

func (r *memChallengeRepo) releaseLocks(ctx context.Context) {
	owner := ctx.Value(txOwnerKey{})
	if owner == nil {
		return
	}
	r.lockMu.Lock()
	locks := r.held[owner]
	delete(r.held, owner)
	r.lockMu.Unlock()
	for _, m := range locks {
		m.Unlock()
	}
}

func (r *memChallengeRepo) FindSubmission(_ context.Context, _ *sqlx.Tx, challengeID, userID string, _ bool) (*model.ChallengeSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.ChallengeID == challengeID && s.UserID == userID {
			return &s, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *memChallengeRepo) UpsertSubmission(_ context.Context, _ *sqlx.Tx, s *model.ChallengeSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.submissions {
		if existing.ChallengeID == s.ChallengeID && existing.UserID == s.UserID {
			s.CreatedAt = existing.CreatedAt
			s.AwardedPoints += existing.AwardedPoints
			r.submissions[i] = *s
			return nil
		}
	}
	s.CreatedAt = r.clock()
	r.submissions = append(r.submissions, *s)
	return nil
}

func (r *memChallengeRepo) ListSubmissions(ctx context.Context, challengeID string) ([]model.SubmissionWithUser, error) {
	r.mu.Lock()
	rows := append([]model.ChallengeSubmission(nil), r.submissions...)
	r.mu.Unlock()
	if r.afterList != nil {
		r.afterList()
	}

	var out []model.SubmissionWithUser
	for _, s := range rows {
		if s.ChallengeID != challengeID {
			continue
		}
		row := model.SubmissionWithUser{ChallengeSubmission: s}
		if u, err := r.users.FindByID(ctx, s.UserID); err == nil {
			row.Name = u.Name
			row.GithubUsername = u.GithubUsername
			row.Avatar = u.Avatar
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *memChallengeRepo) ListSubmittedChallengeIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, s := range r.submissions {
		if s.UserID == userID {
			ids = append(ids, s.ChallengeID)
		}
	}
	return ids, nil
}

func (r *memChallengeRepo) submissionCount(challengeID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.submissions {
		if s.ChallengeID == challengeID {
			n++
		}
	}
	return n
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []realtime.SessionEvent
	err    error
}

func (b *recordingBroadcaster) Publish(_ context.Context, event realtime.SessionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return b.err
}

func (b *recordingBroadcaster) types() []realtime.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]realtime.EventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.Type)
	}
	return out
}

type MockGrader struct {
	mock.Mock
}

func (m *MockGrader) Grade(ctx context.Context, challenge *model.Challenge, submission string) (int, error) {
	args := m.Called(ctx, challenge, submission)
	return args.Int(0), args.Error(1)
}

type memLeaderboardCache struct {
	mu          sync.Mutex
	generations map[string]int64
	entries     map[string][]model.LeaderboardEntry
	invalidated []string
}

func newMemLeaderboardCache() *memLeaderboardCache {
	return &memLeaderboardCache{generations: map[string]int64{}, entries: map[string][]model.LeaderboardEntry{}}
}

func (c *memLeaderboardCache) Generation(_ context.Context, challengeID string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[challengeID], nil
}

func (c *memLeaderboardCache) Get(_ context.Context, challengeID string, generation int64) ([]model.LeaderboardEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fmt.Sprintf("%s:%d", challengeID, generation)]
	return e, ok, nil
}

func (c *memLeaderboardCache) Set(_ context.Context, challengeID string, generation int64, entries []model.LeaderboardEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fmt.Sprintf("%s:%d", challengeID, generation)] = entries
	return nil
}

func (c *memLeaderboardCache) Invalidate(_ context.Context, challengeID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[challengeID]++
	c.invalidated = append(c.invalidated, challengeID)
	return nil
}

// current reports whether a leaderboard is cached for the challenge's current generation.
func (c *memLeaderboardCache) current(challengeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[fmt.Sprintf("%s:%d", challengeID, c.generations[challengeID])]
	return ok
}

type memRevoker struct {
	revoked map[string]time.Duration
}

func (r *memRevoker) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if r.revoked == nil {
		r.revoked = map[string]time.Duration{}
	}
	r.revoked[tokenID] = ttl
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := r.revoked[tokenID]
	return ok, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
