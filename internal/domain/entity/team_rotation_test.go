package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/agencia-leads-api/internal/domain/entity"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	r := &entity.TeamRotation{StartDate: day(2026, 3, 1), EndDate: day(2026, 3, 31)}

	assert.True(t, r.Overlaps(day(2026, 3, 15), day(2026, 4, 15)))
	assert.True(t, r.Overlaps(day(2026, 2, 1), day(2026, 3, 1)), "los extremos se tocan")
	assert.True(t, r.Overlaps(day(2026, 3, 31), day(2026, 4, 30)), "los extremos se tocan")
	assert.False(t, r.Overlaps(day(2026, 4, 1), day(2026, 4, 30)))
	assert.False(t, r.Overlaps(day(2026, 1, 1), day(2026, 2, 28)))
}

func TestConflicts(t *testing.T) {
	r := &entity.TeamRotation{
		UserID: "u1", RotationType: entity.Rotation30Days, IsActive: true,
		StartDate: day(2026, 3, 1), EndDate: day(2026, 3, 31),
	}
	assert.True(t, r.Conflicts("u1", entity.Rotation30Days, day(2026, 3, 10), day(2026, 4, 10)))
	assert.False(t, r.Conflicts("u2", entity.Rotation30Days, day(2026, 3, 10), day(2026, 4, 10)), "otro usuario")
	assert.False(t, r.Conflicts("u1", entity.Rotation90Days, day(2026, 3, 10), day(2026, 4, 10)), "otro tipo")

	r.IsActive = false
	assert.False(t, r.Conflicts("u1", entity.Rotation30Days, day(2026, 3, 10), day(2026, 4, 10)), "inactiva")
}

func TestEndsWithin(t *testing.T) {
	now := day(2026, 3, 25)
	r := &entity.TeamRotation{IsActive: true, StartDate: day(2026, 3, 1), EndDate: day(2026, 3, 31)}
	assert.True(t, r.EndsWithin(now, 7*24*time.Hour))
	assert.False(t, r.EndsWithin(day(2026, 3, 1), 7*24*time.Hour))
	r.IsActive = false
	assert.False(t, r.EndsWithin(now, 7*24*time.Hour))
}

func TestRotationDays(t *testing.T) {
	assert.Equal(t, 30, entity.RotationDays(entity.Rotation30Days))
	assert.Equal(t, 90, entity.RotationDays(entity.Rotation90Days))
	assert.Equal(t, 0, entity.RotationDays("7_days"))
}
