package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"frontdesk/internal/domain"
)

func TestRecentHistory_Empty(t *testing.T) {
	s := NewStore()
	got := s.RecentHistory("+1555", 10)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestRecentHistory_FewerThanLimit(t *testing.T) {
	s := NewStore()
	s.Append("+1555", domain.RoleCustomer, "hi")
	s.Append("+1555", domain.RoleAgent, "hello")

	require.Equal(t, []domain.Turn{
		{Role: domain.RoleCustomer, Text: "hi"},
		{Role: domain.RoleAgent, Text: "hello"},
	}, s.RecentHistory("+1555", 10))
}

func TestRecentHistory_WindowKeepsMostRecentInOrder(t *testing.T) {
	s := NewStore()
	for i := 0; i < 25; i++ {
		s.Append("+1555", domain.RoleCustomer, fmt.Sprintf("m%d", i))
	}

	got := s.RecentHistory("+1555", 10)
	require.Len(t, got, 10)
	for i, turn := range got {
		require.Equal(t, fmt.Sprintf("m%d", 15+i), turn.Text)
	}
	require.Equal(t, 25, s.Len("+1555"))
}

func TestRecentHistory_DefaultLimit(t *testing.T) {
	s := NewStore()
	for i := 0; i < 12; i++ {
		s.Append("+1555", domain.RoleAgent, "x")
	}
	require.Len(t, s.RecentHistory("+1555", 0), DefaultHistoryLimit)
}

func TestRecentHistory_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append("+1555", domain.RoleCustomer, "original")

	got := s.RecentHistory("+1555", 10)
	got[0].Text = "mutated"

	require.Equal(t, "original", s.RecentHistory("+1555", 10)[0].Text)
}

func TestAppend_SendersAreIsolated(t *testing.T) {
	s := NewStore()
	s.Append("+1555", domain.RoleCustomer, "a")
	s.Append("+1666", domain.RoleCustomer, "b")

	require.Equal(t, 1, s.Len("+1555"))
	require.Equal(t, "b", s.RecentHistory("+1666", 10)[0].Text)
}

func TestAppend_Concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append("+1555", domain.RoleCustomer, "x")
			_ = s.RecentHistory("+1555", 10)
		}()
	}
	wg.Wait()
	require.Equal(t, 100, s.Len("+1555"))
}
