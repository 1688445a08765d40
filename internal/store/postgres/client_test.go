package postgres

import (
	"slices"
	"testing"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want string
	}{
		{
			name: "explicit dsn wins",
			cfg:  ClientConfig{DSN: "postgres://u@db/x", Host: "ignored"},
			want: "postgres://u@db/x",
		},
		{
			name: "defaults",
			cfg:  ClientConfig{Host: "localhost", Database: "lottostats", User: "postgres"},
			want: "postgres://postgres:@localhost:5432/lottostats?sslmode=disable",
		},
		{
			name: "escapes password",
			cfg:  ClientConfig{Host: "db", Port: 6543, Database: "lotto", User: "app", Password: "p@ss/word", SSLMode: "require"},
			want: "postgres://app:p%40ss%2Fword@db:6543/lotto?sslmode=require",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Fatalf("DSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) == 0 || names[0] != "001_init.sql" {
		t.Fatalf("names = %v", names)
	}
	if !slices.IsSorted(names) {
		t.Fatalf("names not sorted: %v", names)
	}
}
