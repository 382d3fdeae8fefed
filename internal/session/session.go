// Package session composes the cart and selection slices of a POS session and
// applies actions to them through a single dispatcher.
package session

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/angelmondragon/posfront/internal/cart"
	"github.com/angelmondragon/posfront/internal/selection"
	pkgerrors "github.com/angelmondragon/posfront/pkg/errors"
	"github.com/angelmondragon/posfront/pkg/logger"
)

const lockStripes = 64

// State is the full per-session POS state.
type State struct {
	Cart     cart.State      `json:"cart"`
	Products selection.State `json:"products"`
}

// Action is either a cart.Action or a selection.Action.
type Action any

// Reduce routes action to the slice that owns it. Unknown actions leave state unchanged.
func Reduce(state State, action Action) State {
	switch a := action.(type) {
	case cart.Action:
		return State{Cart: cart.Reduce(state.Cart, a), Products: state.Products}
	case selection.Action:
		return State{Cart: state.Cart, Products: selection.Reduce(state.Products, a)}
	default:
		return state
	}
}

type cartStore interface {
	Load(ctx context.Context, sessionID string) (cart.State, error)
	Save(ctx context.Context, sessionID string, state cart.State) error
}

// Service loads, reduces and saves session state. Dispatches for one session are serialized.
type Service interface {
	Load(ctx context.Context, sessionID string) (State, error)
	Dispatch(ctx context.Context, sessionID string, actions ...Action) (State, error)
}

type service struct {
	carts      cartStore
	selections selection.Store
	logg       *logger.Logger
	locks      [lockStripes]sync.Mutex
}

// NewService builds the dispatcher over the two slice stores.
func NewService(carts cartStore, selections selection.Store, logg *logger.Logger) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if selections == nil {
		return nil, fmt.Errorf("selection store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{carts: carts, selections: selections, logg: logg}, nil
}

func (s *service) Load(ctx context.Context, sessionID string) (State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return State{}, err
	}
	return s.load(ctx, sessionID)
}

func (s *service) Dispatch(ctx context.Context, sessionID string, actions ...Action) (State, error) {
	if err := validateSessionID(sessionID); err != nil {
		return State{}, err
	}
	touchesCart, touchesSelection := false, false
	for _, action := range actions {
		switch action.(type) {
		case cart.Action:
			touchesCart = true
		case selection.Action:
			touchesSelection = true
		default:
			return State{}, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unsupported session action %T", action))
		}
	}

	mu := s.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	state, err := s.load(ctx, sessionID)
	if err != nil {
		return State{}, err
	}
	for _, action := range actions {
		state = Reduce(state, action)
	}

	if touchesCart {
		if err := s.carts.Save(ctx, sessionID, state.Cart); err != nil {
			s.logg.Error(ctx, "failed to save cart state", err)
			return State{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart state")
		}
	}
	if touchesSelection {
		if err := s.selections.Save(ctx, sessionID, state.Products); err != nil {
			s.logg.Error(ctx, "failed to save selection state", err)
			return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save selection state")
		}
	}
	return state, nil
}

func (s *service) load(ctx context.Context, sessionID string) (State, error) {
	cartState, err := s.carts.Load(ctx, sessionID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart state")
	}
	products, err := s.selections.Load(ctx, sessionID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selection state")
	}
	return State{Cart: cartState, Products: products}, nil
}

func (s *service) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%lockStripes]
}

func validateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	return nil
}
