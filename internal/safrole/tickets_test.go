package safrole

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jamstate/jamnode/internal/jamtypes"
)

func ticketWithID(b byte) jamtypes.TicketBody {
	var id jamtypes.Hash
	id[0] = b
	return jamtypes.TicketBody{ID: id}
}

func TestOutsideInOrdering(t *testing.T) {
	tickets := []jamtypes.TicketBody{
		ticketWithID(0), ticketWithID(1), ticketWithID(2), ticketWithID(3),
		ticketWithID(4), ticketWithID(5), ticketWithID(6), ticketWithID(7),
		ticketWithID(8), ticketWithID(9), ticketWithID(10), ticketWithID(11),
	}
	got := OutsideIn(tickets)
	want := []byte{0, 11, 1, 10, 2, 9, 3, 8, 4, 7, 5, 6}
	for i, w := range want {
		require.Equal(t, w, got[i].ID[0], "position %d", i)
	}
}

func TestOutsideInInvolution(t *testing.T) {
	tickets := make([]jamtypes.TicketBody, 12)
	for i := range tickets {
		tickets[i] = ticketWithID(byte(i))
	}
	twice := OutsideIn(OutsideIn(tickets))
	require.Equal(t, tickets, twice)
}

func TestInsertSortedTicketKeepsOrder(t *testing.T) {
	var tickets []jamtypes.TicketBody
	tickets = insertSortedTicket(tickets, ticketWithID(5))
	tickets = insertSortedTicket(tickets, ticketWithID(1))
	tickets = insertSortedTicket(tickets, ticketWithID(9))
	tickets = insertSortedTicket(tickets, ticketWithID(3))
	require.Equal(t, []byte{1, 3, 5, 9}, []byte{tickets[0].ID[0], tickets[1].ID[0], tickets[2].ID[0], tickets[3].ID[0]})
}
