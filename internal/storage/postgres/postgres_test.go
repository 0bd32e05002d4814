package postgres

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/lib/pq"

	"github.com/mmynk/familysync/internal/storage"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{"serialization failure", &pq.Error{Code: "40001"}, true},
		{"deadlock", &pq.Error{Code: "40P01"}, true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"too many connections", &pq.Error{Code: "53300"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"syntax error", &pq.Error{Code: "42601"}, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storage.IsTransient(classify(tt.err))
			if got != tt.transient {
				t.Errorf("IsTransient(classify(%v)) = %v, want %v", tt.err, got, tt.transient)
			}
			if !errors.Is(classify(tt.err), tt.err) {
				t.Errorf("classify must keep the cause")
			}
		})
	}

	if classify(nil) != nil {
		t.Error("classify(nil) must be nil")
	}
}

func TestClassifyCommit(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		transient   bool
		unavailable bool
	}{
		{"serialization failure", &pq.Error{Code: "40001"}, true, false},
		{"connection failure", &pq.Error{Code: "08006"}, false, true},
		{"bad conn", driver.ErrBadConn, false, true},
		{"unexpected eof", io.ErrUnexpectedEOF, false, true},
		{"unique violation", &pq.Error{Code: "23505"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyCommit(tt.err)
			if got := storage.IsTransient(err); got != tt.transient {
				t.Errorf("IsTransient = %v, want %v", got, tt.transient)
			}
			if got := errors.Is(err, storage.ErrUnavailable); got != tt.unavailable {
				t.Errorf("errors.Is(ErrUnavailable) = %v, want %v", got, tt.unavailable)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("classifyCommit must keep the cause")
			}
		})
	}
}
