// Package shop is the interactive terminal front end. It is UI glue
// over the core stores: menu rendering, input parsing and the
// top-level error boundary that forces a logout and a cache flush
// when anything escapes a menu action.
package shop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"MiniShop/internal/basket"
	"MiniShop/internal/catalog"
	"MiniShop/internal/productcache"
	"MiniShop/internal/session"
	"MiniShop/internal/user"
)

const (
	loginAttemptsPerMin = 5
	throttleWindow      = time.Minute
)

type Shop struct {
	Log      *zap.Logger
	Users    *user.Store
	Sessions *session.Manager
	Baskets  *basket.Store
	Cache    *productcache.Cache
	Catalog  catalog.Store

	in  *bufio.Scanner
	out io.Writer

	throttle *loginThrottle
	token    string
	username string
}

func New(s Shop, in io.Reader, out io.Writer) *Shop {
	s.in = bufio.NewScanner(in)
	s.out = out
	s.throttle = newLoginThrottle(loginAttemptsPerMin, throttleWindow)
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	return &s
}

// Run drives the menu loop until the user quits or input ends. The
// deferred cleanup is the process safety net: whatever happened, the
// session dies and the product cache is flushed.
func (s *Shop) Run(ctx context.Context) error {
	defer s.cleanup(ctx)

	for {
		valid, err := s.Sessions.IsValid(ctx, s.token)
		if err != nil {
			s.recover(ctx, err)
			valid = false
		}

		if !valid {
			s.token = ""
			s.username = ""
			// Defensive staleness control on every unauthenticated
			// pass, per the reference behavior.
			if _, err := s.Cache.InvalidateAll(ctx); err != nil {
				s.Log.Warn("cache flush failed", zap.Error(err))
			}
			if quit := s.menuGuest(ctx); quit {
				return nil
			}
			continue
		}

		if quit := s.menuUser(ctx); quit {
			return nil
		}
	}
}

func (s *Shop) menuGuest(ctx context.Context) (quit bool) {
	s.printf("\n1. Create account\n2. Log in\n3. Display products\n4. Delete account\nq. Quit\n")

	choice, ok := s.prompt("> ")
	if !ok || choice == "q" {
		return true
	}

	var err error
	switch choice {
	case "1":
		err = s.register(ctx)
	case "2":
		err = s.login(ctx)
	case "3":
		err = s.browse(ctx)
	case "4":
		err = s.deleteAccount(ctx)
	default:
		s.printf("Unknown choice.\n")
	}

	if err != nil {
		s.recover(ctx, err)
	}
	return false
}

func (s *Shop) menuUser(ctx context.Context) (quit bool) {
	s.printf("\nUser: %s\n", s.username)
	if n, err := s.Baskets.Len(ctx, s.username); err == nil {
		s.printf("Items in basket: %d\n", n)
	}
	s.printf("1. Display products\n2. Product details\n3. Search product by name\n4. Display basket\n5. Add item to basket\n6. Remove item from basket\n7. Log out\nq. Quit\n")

	choice, ok := s.prompt("> ")
	if !ok || choice == "q" {
		return true
	}

	var err error
	switch choice {
	case "1":
		err = s.browse(ctx)
	case "2":
		err = s.productDetails(ctx)
	case "3":
		err = s.search(ctx)
	case "4":
		err = s.showBasket(ctx)
	case "5":
		err = s.addToBasket(ctx)
	case "6":
		err = s.removeFromBasket(ctx)
	case "7":
		err = s.logout(ctx)
	default:
		s.printf("Unknown choice.\n")
	}

	if err != nil {
		s.recover(ctx, err)
	}
	return false
}

func (s *Shop) register(ctx context.Context) error {
	name, ok := s.prompt("Enter your username: ")
	if !ok {
		return nil
	}
	pass, ok := s.prompt("Enter your password: ")
	if !ok {
		return nil
	}

	err := s.Users.Register(ctx, name, pass)
	switch {
	case errors.Is(err, user.ErrDuplicateUser):
		s.printf("Username already exists.\n")
		return nil
	case err != nil:
		return err
	}
	s.printf("User created successfully.\n")
	return nil
}

func (s *Shop) login(ctx context.Context) error {
	name, ok := s.prompt("Username: ")
	if !ok {
		return nil
	}
	pass, ok := s.prompt("Password: ")
	if !ok {
		return nil
	}

	if !s.throttle.allow(name) {
		s.printf("Too many attempts, try again later.\n")
		return nil
	}

	err := s.Users.Verify(ctx, name, pass)
	if errors.Is(err, user.ErrInvalidCredentials) {
		s.printf("Username or password is wrong, please check again!\n")
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.Baskets.EnsureExists(ctx, name); err != nil {
		return err
	}

	token, err := s.Sessions.Create(ctx, name)
	if err != nil {
		return err
	}
	s.token = token
	s.username = name
	s.printf("Logged in.\n")
	return nil
}

func (s *Shop) logout(ctx context.Context) error {
	err := s.Sessions.Destroy(ctx, s.token)
	s.token = ""
	s.username = ""
	s.printf("Logged out.\n")
	return err
}

func (s *Shop) deleteAccount(ctx context.Context) error {
	name, ok := s.prompt("Username: ")
	if !ok {
		return nil
	}

	err := s.Users.Delete(ctx, name)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		s.printf("Username doesn't exist.\n")
		return nil
	case err != nil:
		return err
	}
	s.printf("Account deleted.\n")
	return nil
}

func (s *Shop) browse(ctx context.Context) error {
	return renderCatalog(ctx, s.out, s.Catalog)
}

func (s *Shop) productDetails(ctx context.Context) error {
	id, ok := s.promptInt("Enter product ID: ")
	if !ok {
		return nil
	}
	collection, ok := s.prompt("Enter collection name: ")
	if !ok {
		return nil
	}

	start := time.Now()
	doc, found, err := s.Cache.GetDetails(ctx, collection, id)
	if err != nil {
		return err
	}
	s.printf("Data retrieve time: %v\n", time.Since(start))

	if !found {
		s.printf("No result found.\n")
		return nil
	}
	renderProduct(s.out, doc)
	return nil
}

func (s *Shop) search(ctx context.Context) error {
	_, err := s.pickProduct(ctx)
	return err
}

// pickProduct runs the fuzzy-search-then-choose flow and returns the
// chosen document via the read-through cache, or nil when the flow
// was abandoned.
func (s *Shop) pickProduct(ctx context.Context) (basket.Item, error) {
	query, ok := s.prompt("Enter product name to search: ")
	if !ok {
		return basket.Item{}, nil
	}
	collection, ok := s.prompt("Enter collection name: ")
	if !ok {
		return basket.Item{}, nil
	}

	results, err := s.Catalog.Search(ctx, collection, query)
	if err != nil {
		return basket.Item{}, err
	}
	if len(results) == 0 {
		s.printf("No product found.\n")
		return basket.Item{}, nil
	}

	for i, doc := range results {
		s.printf("%d. %s\n", i+1, doc.Name())
	}

	idx, ok := s.promptInt("Enter a number to display the product in detail: ")
	if !ok || idx < 1 || idx > int64(len(results)) {
		s.printf("Invalid choice!\n")
		return basket.Item{}, nil
	}

	picked := results[idx-1]
	doc, found, err := s.Cache.GetDetails(ctx, collection, picked.ID())
	if err != nil {
		return basket.Item{}, err
	}
	if !found {
		s.printf("No result found.\n")
		return basket.Item{}, nil
	}

	renderProduct(s.out, doc)
	return basket.Item{Collection: collection, ID: doc.ID(), Name: doc.Name()}, nil
}

func (s *Shop) showBasket(ctx context.Context) error {
	items, err := s.Baskets.Items(ctx, s.username)
	if err != nil {
		return err
	}
	renderBasket(s.out, items)
	return nil
}

func (s *Shop) addToBasket(ctx context.Context) error {
	item, err := s.pickProduct(ctx)
	if err != nil {
		return err
	}

	if err := s.Baskets.Add(ctx, s.username, item); err != nil {
		if errors.Is(err, basket.ErrEmptyItem) {
			s.printf("Failed to add item.\n")
			return nil
		}
		return err
	}
	s.printf("Item added.\n")
	return nil
}

func (s *Shop) removeFromBasket(ctx context.Context) error {
	if err := s.showBasket(ctx); err != nil {
		return err
	}

	id, ok := s.promptInt("Item ID: ")
	if !ok {
		return nil
	}
	collection, ok := s.prompt("Collection name: ")
	if !ok {
		return nil
	}

	removed, err := s.Baskets.Remove(ctx, s.username, id, collection)
	if err != nil {
		return err
	}
	if removed {
		s.printf("Item removed.\n")
	} else {
		s.printf("Failed to remove item.\n")
	}
	return nil
}

// recover is the error boundary: log, kill the session, flush the
// cache, and let the loop carry on.
func (s *Shop) recover(ctx context.Context, err error) {
	s.Log.Error("action failed, forcing logout and cache flush", zap.Error(err))
	s.printf("Something went wrong; you have been logged out.\n")
	s.cleanup(ctx)
}

func (s *Shop) cleanup(ctx context.Context) {
	if err := s.Sessions.Destroy(ctx, s.token); err != nil {
		s.Log.Warn("session cleanup failed", zap.Error(err))
	}
	s.token = ""
	s.username = ""
	if _, err := s.Cache.InvalidateAll(ctx); err != nil {
		s.Log.Warn("cache cleanup failed", zap.Error(err))
	}
}

func (s *Shop) prompt(label string) (string, bool) {
	s.printf("%s", label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shop) promptInt(label string) (int64, bool) {
	text, ok := s.prompt(label)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Shop) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
