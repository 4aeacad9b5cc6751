package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/surrealdb/surrealdb.go"
)

func TestWrapQueryError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "nil passes through",
			err:  nil,
			want: nil,
		},
		{
			name: "transaction conflict mapped",
			err:  &surrealdb.QueryError{Message: "Transaction conflict: read keys conflict"},
			want: ErrTransactionConflict,
		},
		{
			name: "wrapped query error mapped",
			err:  fmt.Errorf("query: %w", &surrealdb.QueryError{Message: "Transaction conflict"}),
			want: ErrTransactionConflict,
		},
		{
			name: "other query error passes through",
			err:  &surrealdb.QueryError{Message: "Parse error"},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapQueryError(tt.err)
			if tt.want == nil {
				if tt.err == nil && got != nil {
					t.Fatalf("wrapQueryError(nil) = %v", got)
				}
				if tt.err != nil && errors.Is(got, ErrTransactionConflict) {
					t.Fatalf("unexpected sentinel for %v", tt.err)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("wrapQueryError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
