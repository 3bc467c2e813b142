package reschedule

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/adapter/cli/clitest"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
)

func conflicted(t *testing.T, env *clitest.Env) *domain.Booking {
	t.Helper()
	b := env.SeedBooking(clitest.Now.Add(24 * time.Hour))
	env.StoreWeather(clitest.LowVisibility)
	_, err := env.Container.CheckBookingHandler.Handle(context.Background(), commands.CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	return b
}

func generateSet(t *testing.T, b *domain.Booking) queries.OptionSetDTO {
	t.Helper()
	cli.SetJSONOutput(true)
	defer cli.SetJSONOutput(false)

	out, err := clitest.Run(t, generateCmd, b.ID.String())
	require.NoError(t, err)
	var set queries.OptionSetDTO
	require.NoError(t, json.Unmarshal([]byte(out), &set))
	return set
}

func TestGenerateCmd_FallsBackToRuleBased(t *testing.T) {
	env := clitest.Setup(t)
	b := conflicted(t, env)

	set := generateSet(t, b)
	assert.Equal(t, domain.ProviderRuleBased, set.Provider)
	assert.Equal(t, "pending", set.Status)
	require.Len(t, set.Options, 3)
	assert.Equal(t, []int{75, 80, 85}, []int{set.Options[0].Confidence, set.Options[1].Confidence, set.Options[2].Confidence})
}

func TestGenerateCmd_WithoutConflict(t *testing.T) {
	env := clitest.Setup(t)
	b := env.SeedBooking(clitest.Now.Add(24 * time.Hour))

	_, err := clitest.Run(t, generateCmd, b.ID.String())
	assert.ErrorContains(t, err, "conflict not found")
}

func TestAcceptCmd_MovesBooking(t *testing.T) {
	env := clitest.Setup(t)
	b := conflicted(t, env)
	set := generateSet(t, b)

	out, err := clitest.Run(t, acceptCmd, set.ID.String(), "1")
	require.NoError(t, err)
	assert.Contains(t, out, "rescheduled")
	assert.Contains(t, out, set.Options[1].DateTime.Format(time.RFC3339))

	moved, err := env.Container.BookingRepo.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, moved.ScheduledAt.Equal(set.Options[1].DateTime))
	assert.Equal(t, domain.BookingRescheduled, moved.Status)

	out, err = clitest.Run(t, showCmd, set.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "* [1]")
}

func TestAcceptCmd_OutOfRange(t *testing.T) {
	env := clitest.Setup(t)
	b := conflicted(t, env)
	set := generateSet(t, b)

	_, err := clitest.Run(t, acceptCmd, set.ID.String(), "3")
	assert.ErrorContains(t, err, "option index out of range")

	_, err = clitest.Run(t, acceptCmd, set.ID.String(), "one")
	assert.ErrorContains(t, err, "invalid option index")

	out, err := clitest.Run(t, showCmd, set.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "(pending")
}

func TestRejectCmd(t *testing.T) {
	env := clitest.Setup(t)
	b := conflicted(t, env)
	set := generateSet(t, b)

	rejectReason = "student unavailable"
	t.Cleanup(func() { rejectReason = "" })

	out, err := clitest.Run(t, rejectCmd, set.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Options rejected")

	out, err = clitest.Run(t, showCmd, set.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Rejected: student unavailable")
}

func TestShowCmd_ByBooking(t *testing.T) {
	env := clitest.Setup(t)
	b := conflicted(t, env)
	set := generateSet(t, b)

	showBooking = b.ID.String()
	t.Cleanup(func() { showBooking = "" })

	out, err := clitest.Run(t, showCmd)
	require.NoError(t, err)
	assert.Contains(t, out, set.ID.String())

	showBooking = ""
	_, err = clitest.Run(t, showCmd)
	assert.ErrorContains(t, err, "give an option set ID or --booking")

	_, err = clitest.Run(t, showCmd, uuid.NewString())
	assert.ErrorContains(t, err, "not found")
}
