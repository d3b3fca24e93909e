package mockapi

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/lborres/medassist/core"
	"github.com/lborres/medassist/pkg/crypto"
)

// Backend errors. Their text is sent to the client as the "detail" field.
var (
	ErrEmailTaken           = errors.New("Email already registered")
	ErrUsernameTaken        = errors.New("Username already taken")
	ErrBadCredentials       = errors.New("Incorrect username or password")
	ErrInactiveUser         = errors.New("Inactive user")
	ErrNotAuthenticated     = errors.New("Not authenticated")
	ErrInvalidToken         = errors.New("Could not validate credentials")
	ErrConversationNotFound = errors.New("Conversation not found")
)

// ValidationError is a request that parsed but is not acceptable.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

type account struct {
	user core.User
	hash string
}

type conversation struct {
	userID   int64
	symptoms []string
}

// store is the backend's in-memory state. Access tokens are kept by hash
// only.
type store struct {
	hasher crypto.PasswordHasher

	mu            sync.RWMutex
	nextUserID    int64
	accounts      map[int64]*account
	tokens        map[string]int64
	nextConvID    int64
	conversations map[int64]*conversation
}

func newStore(hasher crypto.PasswordHasher) *store {
	return &store{
		hasher:        hasher,
		accounts:      make(map[int64]*account),
		tokens:        make(map[string]int64),
		conversations: make(map[int64]*conversation),
	}
}

func (s *store) createUser(in core.RegisterInput) (*core.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	switch {
	case username == "":
		return nil, &ValidationError{Detail: "Username is required"}
	case !strings.Contains(email, "@"):
		return nil, &ValidationError{Detail: "Invalid email address"}
	case in.Password == "":
		return nil, &ValidationError{Detail: "Password is required"}
	}

	// hash outside the lock, it is the slow part
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return nil, ErrEmailTaken
		}
		if a.user.Username == username {
			return nil, ErrUsernameTaken
		}
	}

	s.nextUserID++
	a := &account{
		user: core.User{
			ID:       s.nextUserID,
			Email:    email,
			Username: username,
			IsActive: in.IsActive,
		},
		hash: hash,
	}
	s.accounts[a.user.ID] = a

	user := a.user
	return &user, nil
}

// authenticate accepts either the email or the username as identifier and
// issues a fresh access token.
func (s *store) authenticate(identifier, password string) (string, *core.User, error) {
	identifier = strings.TrimSpace(identifier)

	s.mu.RLock()
	var found *account
	for _, a := range s.accounts {
		if strings.EqualFold(a.user.Email, identifier) || a.user.Username == identifier {
			found = a
			break
		}
	}
	s.mu.RUnlock()

	if found == nil {
		return "", nil, ErrBadCredentials
	}
	ok, err := s.hasher.Verify(password, found.hash)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrBadCredentials
	}
	if !found.user.IsActive {
		return "", nil, ErrInactiveUser
	}

	issued, err := crypto.IssueToken()
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	s.tokens[issued.Hash] = found.user.ID
	s.mu.Unlock()

	user := found.user
	return issued.Token, &user, nil
}

func (s *store) userByToken(token string) (*core.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tokens[crypto.HashToken(token)]
	if !ok {
		return nil, ErrInvalidToken
	}
	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrInvalidToken
	}
	user := a.user
	return &user, nil
}

// recordSymptoms finds the caller's conversation, or starts one when id is
// nil. It records symptoms and returns everything collected so far.
func (s *store) recordSymptoms(userID int64, id *int64, symptoms []string) (int64, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		convID int64
		conv   *conversation
	)
	if id != nil {
		c, ok := s.conversations[*id]
		if !ok || c.userID != userID {
			return 0, nil, ErrConversationNotFound
		}
		convID, conv = *id, c
	} else {
		s.nextConvID++
		convID = s.nextConvID
		conv = &conversation{userID: userID}
		s.conversations[convID] = conv
	}

	for _, sym := range symptoms {
		if !slices.Contains(conv.symptoms, sym) {
			conv.symptoms = append(conv.symptoms, sym)
		}
	}
	return convID, slices.Clone(conv.symptoms), nil
}
