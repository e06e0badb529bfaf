// Package id generates the run identifiers attached to reports and manifest
// records. Identifiers are monotonic ULIDs, so ids generated by one process
// sort in creation order.
package id

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mutex   sync.Mutex
	entropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

type ID struct {
	value ulid.ULID
}

func NewFromTime(t time.Time) (*ID, error) {
	mutex.Lock()
	defer mutex.Unlock()

	v, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return nil, err
	}

	return &ID{v}, nil
}

func NewStringFromTime(t time.Time) (string, error) {
	v, err := NewFromTime(t)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

func NewString() (string, error) {
	return NewStringFromTime(time.Now())
}

// MustNewString is like NewString but panics if the entropy source overflows.
func MustNewString() string {
	s, err := NewString()
	if err != nil {
		panic(err)
	}
	return s
}

func Parse(s string) (*ID, error) {
	v, err := ulid.ParseStrict(s)
	if err != nil {
		return nil, err
	}

	return &ID{v}, nil
}

func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

func (id *ID) String() string {
	return id.value.String()
}

// Time returns the creation time encoded in the id, truncated to milliseconds.
func (id *ID) Time() time.Time {
	return ulid.Time(id.value.Time())
}
