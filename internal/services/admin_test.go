package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/harentsoaR/clinic-api/internal/apperr"
	"github.com/harentsoaR/clinic-api/internal/models"
	"github.com/harentsoaR/clinic-api/internal/store/memory"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

type adminFixture struct {
	svc      *AdminService
	store    *memory.Store
	hasher   *utils.BcryptHasher
	uploader *fakeUploader
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	st := memory.New()
	hasher := utils.NewBcryptHasher(bcrypt.MinCost)
	up := &fakeUploader{}
	return &adminFixture{
		svc:      NewAdminService(st, hasher, stubTokens{}, up, zap.NewNop()),
		store:    st,
		hasher:   hasher,
		uploader: up,
	}
}

func (f *adminFixture) seedUser(t *testing.T, name, email, phone, password string) *models.Account {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	acct := &models.Account{Name: name, Email: email, Phone: phone, Password: hash, Role: models.RoleUser}
	require.NoError(t, f.store.Create(context.Background(), acct))
	return acct
}

func TestCreateAdmin_ConflictOnSecondCall(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	in := CreateAdminInput{Email: "root@clinic.test", Password: "secret1", Name: "Root", Phone: "100"}

	admin, err := f.svc.CreateAdmin(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NotEqual(t, "secret1", admin.Password)
	assert.True(t, f.hasher.Verify(admin.Password, "secret1"))

	_, err = f.svc.CreateAdmin(ctx, in)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 1, f.store.Count(models.RoleAdmin))
}

func TestCreateAdmin_EmailIsCaseInsensitive(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	admin, err := f.svc.CreateAdmin(ctx, CreateAdminInput{Email: " Root@Clinic.test", Password: "secret1", Name: "Root"})
	require.NoError(t, err)
	assert.Equal(t, "root@clinic.test", admin.Email)

	_, err = f.svc.CreateAdmin(ctx, CreateAdminInput{Email: "root@clinic.test", Password: "secret2", Name: "Other"})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Equal(t, 1, f.store.Count(models.RoleAdmin))

	auth := NewAuthService(f.store, f.hasher, stubTokens{}, zap.NewNop())
	res, err := auth.Login(ctx, "Root@Clinic.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, res.Account.ID)
}

func TestRoleTransitions_RoundTrip(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Ana", "ana@clinic.test", "555", "pw-ana")
	originalHash := user.Password

	assertOnlyIn := func(role models.Role) {
		t.Helper()
		for _, r := range []models.Role{models.RoleUser, models.RoleDoctor, models.RoleAdmin} {
			want := 0
			if r == role {
				want = 1
			}
			assert.Equal(t, want, f.store.Count(r), "collection %s", r)
		}
	}
	assertCarried := func(acct *models.Account) {
		t.Helper()
		assert.Equal(t, "Ana", acct.Name)
		assert.Equal(t, "ana@clinic.test", acct.Email)
		assert.Equal(t, "555", acct.Phone)
		assert.Equal(t, originalHash, acct.Password)
	}

	doctor, changed, err := f.svc.UpdateAccount(ctx, user.ID.Hex(), models.AccountPatch{Role: models.RoleDoctor})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.RoleDoctor, doctor.Role)
	assert.NotEqual(t, user.ID, doctor.ID)
	assert.Equal(t, user.ID, doctor.OriginID)
	assertCarried(doctor)
	assertOnlyIn(models.RoleDoctor)

	admin, changed, err := f.svc.ChangeRole(ctx, doctor.ID.Hex(), models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, user.ID, admin.OriginID)
	assertCarried(admin)
	assertOnlyIn(models.RoleAdmin)

	back, changed, err := f.svc.ChangeRole(ctx, admin.ID.Hex(), models.RoleUser)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, user.ID, back.ID, "demotion restores the origin id")
	assert.True(t, back.OriginID.IsZero())
	assertCarried(back)
	assertOnlyIn(models.RoleUser)

	stored, err := f.store.FindByID(ctx, models.RoleUser, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, stored.Role)
}

func TestChangeRole_SameRoleIsNoop(t *testing.T) {
	f := newAdminFixture(t)
	user := f.seedUser(t, "Ben", "ben@clinic.test", "", "pw")

	acct, changed, err := f.svc.ChangeRole(context.Background(), user.ID.Hex(), models.RoleUser)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, user.ID, acct.ID)
	assert.Zero(t, f.store.Calls("Transfer"))
}

func TestChangeRole_Errors(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.ChangeRole(ctx, "nope", models.RoleDoctor)
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, _, err = f.svc.ChangeRole(ctx, primitive.NewObjectID().Hex(), "superuser")
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, _, err = f.svc.ChangeRole(ctx, primitive.NewObjectID().Hex(), models.RoleDoctor)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpdateAccount_NoChanges(t *testing.T) {
	f := newAdminFixture(t)
	user := f.seedUser(t, "Cleo", "cleo@clinic.test", "1", "same-pw")

	acct, changed, err := f.svc.UpdateAccount(context.Background(), user.ID.Hex(), models.AccountPatch{
		Password: "same-pw",
		Role:     models.RoleUser,
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, user.ID, acct.ID)
	assert.Zero(t, f.store.Calls("Update"))
}

func TestUpdateAccount_Fields(t *testing.T) {
	f := newAdminFixture(t)
	user := f.seedUser(t, "Dan", "dan@clinic.test", "2", "old-pw")

	acct, changed, err := f.svc.UpdateAccount(context.Background(), user.ID.Hex(), models.AccountPatch{
		Name:        "Daniel",
		Password:    "new-pw",
		AvatarImage: "aGVsbG8=",
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "Daniel", acct.Name)
	assert.Equal(t, "dan@clinic.test", acct.Email, "empty fields are left alone")
	assert.True(t, f.hasher.Verify(acct.Password, "new-pw"))
	assert.Equal(t, []string{"Users/" + user.ID.Hex() + "/Avatar"}, f.uploader.folders)
	assert.Contains(t, acct.AvatarURL, "Avatar")
}

func TestUpdateAccount_NormalizesEmail(t *testing.T) {
	f := newAdminFixture(t)
	user := f.seedUser(t, "Jo", "jo@clinic.test", "6", "pw")

	acct, changed, err := f.svc.UpdateAccount(context.Background(), user.ID.Hex(), models.AccountPatch{Email: " Jo.New@Clinic.TEST "})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "jo.new@clinic.test", acct.Email)
}

func TestUpdateAccount_RoleChangeCarriesPatch(t *testing.T) {
	f := newAdminFixture(t)
	user := f.seedUser(t, "Kai", "kai@clinic.test", "7", "pw")

	acct, changed, err := f.svc.UpdateAccount(context.Background(), user.ID.Hex(), models.AccountPatch{
		Name: "Dr Kai",
		Role: models.RoleDoctor,
	})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.RoleDoctor, acct.Role)
	assert.Equal(t, "Dr Kai", acct.Name)
	assert.Equal(t, user.ID, acct.OriginID)
	assert.Zero(t, f.store.Calls("Update"))
	assert.Equal(t, 0, f.store.Count(models.RoleUser))
}

func TestUpdateAccount_FailedTransferKeepsRecord(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Lea", "lea@clinic.test", "8", "pw")
	taken := &models.Account{Name: "Dr Lea", Email: "lea@clinic.test", Password: "x", Role: models.RoleDoctor}
	require.NoError(t, f.store.Create(ctx, taken))

	_, _, err := f.svc.UpdateAccount(ctx, user.ID.Hex(), models.AccountPatch{
		Name: "Renamed",
		Role: models.RoleDoctor,
	})
	require.ErrorIs(t, err, apperr.ErrConflict)

	got, err := f.store.FindByID(ctx, models.RoleUser, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lea", got.Name)
	assert.Equal(t, 1, f.store.Count(models.RoleDoctor))
}

func TestUpdateAccount_BlankPasswordKeepsHash(t *testing.T) {
	f := newAdminFixture(t)
	user := f.seedUser(t, "Eve", "eve@clinic.test", "3", "keep")

	acct, _, err := f.svc.UpdateAccount(context.Background(), user.ID.Hex(), models.AccountPatch{
		Name:     "Eva",
		Password: "   ",
	})
	require.NoError(t, err)
	assert.Equal(t, user.Password, acct.Password)
}

func TestUpdateAccount_Errors(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.UpdateAccount(ctx, "123", models.AccountPatch{Name: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, _, err = f.svc.UpdateAccount(ctx, primitive.NewObjectID().Hex(), models.AccountPatch{Name: "x"})
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "User not found", apperr.Message(err))
}

func TestDeleteAccountAndDoctor(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Fay", "fay@clinic.test", "4", "pw")

	require.NoError(t, f.svc.DeleteAccount(ctx, user.ID.Hex()))
	assert.Equal(t, 0, f.store.Count(models.RoleUser))

	err := f.svc.DeleteAccount(ctx, user.ID.Hex())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = f.svc.DeleteDoctor(ctx, primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Doctor not found", apperr.Message(err))

	assert.ErrorIs(t, f.svc.DeleteDoctor(ctx, "bad"), apperr.ErrInvalidArgument)
}

func TestListAndGet(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "Gus", "gus@clinic.test", "5", "pw")

	users, err := f.svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	doctors, err := f.svc.ListDoctors(ctx)
	require.NoError(t, err)
	assert.Empty(t, doctors)

	got, err := f.svc.GetUser(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Gus", got.Name)

	token, err := f.svc.GenerateToken(got)
	require.NoError(t, err)
	assert.Equal(t, "token-user-"+user.ID.Hex(), token)
}
