package service

import (
	"errors"
	"testing"

	"go-agritrace/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNotifyFixture() (*fakeUserRepo, *fakeNotifRepo, NotifyService) {
	users := newFakeUserRepo()
	notifs := &fakeNotifRepo{}
	svc := NewNotifyService(users, notifs, nil, nil)
	return users, notifs, svc
}

func userWithRole(name, phone string, role model.Role) *model.User {
	u := &model.User{FullName: name, Phone: phone, Role: role}
	u.ID = uuid.New()
	return u
}

func TestFanoutAddProductNotifiesActorAndModerators(t *testing.T) {
	users, notifs, svc := newNotifyFixture()
	farmer := userWithRole("Alice Nguyen", "0900000001", model.RoleFarmer)
	mod1 := userWithRole("Mod One", "0900000010", model.RoleModerator)
	mod2 := userWithRole("Mod Two", "0900000011", model.RoleModerator)
	users.add(farmer)
	users.add(mod1)
	users.add(mod2)

	svc.Fanout(model.ActionAddProduct, &model.Product{
		ProductID:   "P001",
		ProductName: "Jasmine Rice",
		FarmPhone:   farmer.Phone,
	}, farmer)

	require.Len(t, notifs.stored, 3)

	byUser := map[uuid.UUID]model.Notification{}
	for _, n := range notifs.stored {
		byUser[n.UserID] = n
	}

	actorNote, ok := byUser[farmer.ID]
	require.True(t, ok, "actor gets a confirmation")
	assert.Equal(t, model.NotifySuccess, actorNote.Type)
	assert.Contains(t, actorNote.Message, "Jasmine Rice")
	assert.Contains(t, actorNote.Message, "P001")

	modNote, ok := byUser[mod1.ID]
	require.True(t, ok, "every moderator gets the review request")
	assert.Equal(t, model.NotifyInfo, modNote.Type)
	assert.Contains(t, modNote.Message, "Alice Nguyen")
	_, ok = byUser[mod2.ID]
	assert.True(t, ok)
}

func TestFanoutApproveHarvestNotifiesFarmerAndTransporters(t *testing.T) {
	users, notifs, svc := newNotifyFixture()
	farmer := userWithRole("Alice Nguyen", "0900000001", model.RoleFarmer)
	trans := userWithRole("Bob Haul", "0900000020", model.RoleTransporter)
	moderator := userWithRole("Mod", "0900000010", model.RoleModerator)
	users.add(farmer)
	users.add(trans)
	users.add(moderator)

	svc.Fanout(model.ActionApproveHarvest, &model.Product{
		ProductID:   "P001",
		ProductName: "Jasmine Rice",
		FarmPhone:   farmer.Phone,
	}, moderator)

	require.Len(t, notifs.stored, 2)

	var farmerSeen, transporterSeen bool
	for _, n := range notifs.stored {
		switch n.UserID {
		case farmer.ID:
			farmerSeen = true
			assert.Equal(t, model.NotifySuccess, n.Type)
		case trans.ID:
			transporterSeen = true
			assert.Equal(t, "New shipment available", n.Title)
		case moderator.ID:
			t.Error("the approving moderator is not a recipient")
		}
	}
	assert.True(t, farmerSeen)
	assert.True(t, transporterSeen)
}

func TestFanoutManagerInfoNotifiesAdminAndManager(t *testing.T) {
	users, notifs, svc := newNotifyFixture()
	admin := userWithRole("Root", "0900000000", model.RoleAdmin)
	manager := userWithRole("Store", "0900000030", model.RoleManager)
	users.add(admin)
	users.add(manager)

	svc.Fanout(model.ActionUpdateManagerInfo, &model.Product{
		ProductID: "P001",
		Price:     450,
	}, manager)

	require.Len(t, notifs.stored, 2)
	for _, n := range notifs.stored {
		assert.Contains(t, n.Message, "450")
	}
}

func TestFanoutLogCareNotifiesNobody(t *testing.T) {
	users, notifs, svc := newNotifyFixture()
	users.add(userWithRole("Mod", "0900000010", model.RoleModerator))

	svc.Fanout(model.ActionLogCare, &model.Product{ProductID: "P001"}, testActor())

	assert.Empty(t, notifs.stored)
}

func TestFanoutUnknownFarmerPhoneIsBestEffort(t *testing.T) {
	_, notifs, svc := newNotifyFixture()

	// No user matches the product's farm phone; nothing stored, no panic.
	svc.Fanout(model.ActionApprovePlanting, &model.Product{
		ProductID: "P001",
		FarmPhone: "0999999999",
	}, nil)

	assert.Empty(t, notifs.stored)
}

func TestFanoutStoreFailureIsSwallowed(t *testing.T) {
	users, notifs, svc := newNotifyFixture()
	notifs.createErr = errors.New("db down")
	farmer := userWithRole("Alice Nguyen", "0900000001", model.RoleFarmer)
	users.add(farmer)

	assert.NotPanics(t, func() {
		svc.Fanout(model.ActionApprovePlanting, &model.Product{
			ProductID: "P001",
			FarmPhone: farmer.Phone,
		}, nil)
	})
}
