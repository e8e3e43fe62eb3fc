package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"polkaedu_backend/internal/chain"
	"polkaedu_backend/internal/config"
	"polkaedu_backend/internal/middleware"
	"polkaedu_backend/internal/model"
	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/service"
	"polkaedu_backend/internal/util"
	"polkaedu_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bobAddress   = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	testSecret   = "0123456789abcdef0123456789abcdef"
	validTxHash  = "0x1111111111111111111111111111111111111111111111111111111111111111"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitDB(&config.DatabaseConfig{Driver: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	connector := chain.NewStaticConnector(nil)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)

	users := service.NewUserService(userRepo, testSecret, time.Hour)
	users.PasswordCost = bcrypt.MinCost
	courses := service.NewCourseService(courseRepo)
	payments := service.NewPaymentService(connector, aliceAddress, 10)
	nfts := service.NewNFTService(connector, nil, nil, service.NFTOptions{CollectionID: 1})
	certificates := service.NewCertificateService(repository.NewCertificateRepository(db), userRepo, nfts)
	enrollments := service.NewEnrollmentService(repository.NewEnrollmentRepository(db), userRepo, courseRepo, users, payments, certificates)

	userCtrl := NewUserController(users)
	courseCtrl := NewCourseController(courses)
	enrollCtrl := NewEnrollmentController(enrollments)
	certCtrl := NewCertificateController(certificates)
	paymentCtrl := NewPaymentController(payments)
	healthCtrl := NewHealthController(db, connector)

	r := gin.New()
	r.GET("/health", healthCtrl.HealthCheck)
	r.GET("/api", healthCtrl.APIIndex)

	api := r.Group("/api")
	api.POST("/users", userCtrl.CreateUser)
	api.POST("/users/wallet", userCtrl.GetOrCreateByWallet)
	api.POST("/users/login", userCtrl.Login)
	api.GET("/users/me", middleware.AuthMiddleware(testSecret), userCtrl.GetProfile)
	api.GET("/users/:id", userCtrl.GetUser)
	api.PUT("/users/:id", userCtrl.UpdateUser)
	api.DELETE("/users/:id", userCtrl.DeleteUser)
	api.POST("/users/:id/wallet", userCtrl.AssociateWallet)

	api.POST("/courses", courseCtrl.CreateCourse)
	api.GET("/courses/:id", courseCtrl.GetCourse)
	api.GET("/courses/:id/lessons", courseCtrl.GetLessons)

	api.POST("/enrollments", enrollCtrl.Enroll)
	api.POST("/enrollments/wallet", enrollCtrl.EnrollByWallet)
	api.GET("/enrollments/wallet/:walletAddress", enrollCtrl.GetByWallet)
	api.GET("/enrollments/:id", enrollCtrl.GetEnrollment)
	api.PUT("/enrollments/:id/progress", enrollCtrl.UpdateProgress)
	api.POST("/enrollments/:id/complete", enrollCtrl.CompleteCourse)

	api.GET("/certificates/wallet/:walletAddress", certCtrl.GetByWallet)
	api.GET("/certificates/:id", certCtrl.GetCertificate)

	api.POST("/payments/verify", paymentCtrl.VerifyPayment)
	api.GET("/payments/admin-address", paymentCtrl.GetAdminAddress)
	return r
}

func perform(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func TestWalletEnrollmentFlow(t *testing.T) {
	r := newTestRouter(t)

	code, env := perform(t, r, http.MethodPost, "/api/courses", gin.H{
		"title":      "Substrate Basics",
		"instructor": "Shawn",
		"duration":   10,
		"price":      5,
		"lessons":    []gin.H{{"title": "Runtime"}, {"title": "Pallets"}},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var course model.Course
	decode(t, env, &course)
	require.Len(t, course.Lessons, 2)

	code, env = perform(t, r, http.MethodPost, "/api/enrollments/wallet", gin.H{"walletAddress": bobAddress, "courseId": course.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.ErrPaymentRequired.Error(), env.Message)

	code, env = perform(t, r, http.MethodPost, "/api/enrollments/wallet", gin.H{
		"walletAddress":   bobAddress,
		"courseId":        course.ID,
		"transactionHash": validTxHash,
		"amount":          4,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "amount paid (4) is less than course price (5)", env.Message)

	code, env = perform(t, r, http.MethodPost, "/api/enrollments/wallet", gin.H{
		"walletAddress":   bobAddress,
		"courseId":        course.ID,
		"transactionHash": validTxHash,
		"amount":          5,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var enrollment model.Enrollment
	decode(t, env, &enrollment)
	assert.Equal(t, 0, enrollment.Progress)

	code, env = perform(t, r, http.MethodPost, "/api/enrollments/wallet", gin.H{"walletAddress": bobAddress, "courseId": course.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.ErrAlreadyEnrolled.Error(), env.Message)

	code, env = perform(t, r, http.MethodPut, "/api/enrollments/"+enrollment.ID+"/progress", gin.H{"progress": 150})
	require.Equal(t, http.StatusOK, code, env.Message)
	var updated model.Enrollment
	decode(t, env, &updated)
	assert.Equal(t, 100, updated.Progress)
	assert.True(t, updated.Completed)
	require.NotNil(t, updated.Certificate)
	// 测试中未启用链，证书处于 pending
	assert.Equal(t, model.CertificatePending, updated.Certificate.Status)

	code, env = perform(t, r, http.MethodPost, "/api/enrollments/"+enrollment.ID+"/complete", nil)
	require.Equal(t, http.StatusOK, code)
	var completed model.Enrollment
	decode(t, env, &completed)
	require.NotNil(t, completed.Certificate)
	assert.Equal(t, updated.Certificate.ID, completed.Certificate.ID)

	code, env = perform(t, r, http.MethodGet, "/api/certificates/wallet/"+bobAddress, nil)
	require.Equal(t, http.StatusOK, code)
	var certs []model.Certificate
	decode(t, env, &certs)
	assert.Len(t, certs, 1)

	code, env = perform(t, r, http.MethodGet, "/api/certificates/"+certs[0].ID, nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = perform(t, r, http.MethodGet, "/api/enrollments/wallet/"+aliceAddress, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestEnrollFreeCourseByUserID(t *testing.T) {
	r := newTestRouter(t)

	_, env := perform(t, r, http.MethodPost, "/api/courses", gin.H{"title": "Intro", "instructor": "Gavin", "duration": 1})
	var course model.Course
	decode(t, env, &course)

	_, env = perform(t, r, http.MethodPost, "/api/users", gin.H{"email": "ada@example.com", "password": "secret"})
	var user model.User
	decode(t, env, &user)

	code, env := perform(t, r, http.MethodPost, "/api/enrollments", gin.H{"userId": user.ID, "courseId": course.ID})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = perform(t, r, http.MethodPost, "/api/enrollments", gin.H{"userId": user.ID, "courseId": course.ID})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.ErrAlreadyEnrolled.Error(), env.Message)

	code, _ = perform(t, r, http.MethodPost, "/api/enrollments", gin.H{"userId": user.ID})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestErrorStatusMapping(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		body   interface{}
		status int
	}{
		{http.MethodGet, "/api/courses/missing", nil, http.StatusNotFound},
		{http.MethodGet, "/api/courses/missing/lessons", nil, http.StatusNotFound},
		{http.MethodGet, "/api/enrollments/missing", nil, http.StatusNotFound},
		{http.MethodPost, "/api/enrollments/missing/complete", nil, http.StatusNotFound},
		{http.MethodGet, "/api/certificates/missing", nil, http.StatusNotFound},
		{http.MethodGet, "/api/users/missing", nil, http.StatusNotFound},
		{http.MethodDelete, "/api/users/missing", nil, http.StatusNotFound},
		{http.MethodPut, "/api/enrollments/missing/progress", gin.H{"progress": "abc"}, http.StatusBadRequest},
		{http.MethodPut, "/api/enrollments/missing/progress", gin.H{}, http.StatusBadRequest},
		{http.MethodPost, "/api/courses", gin.H{"title": "No instructor"}, http.StatusBadRequest},
		{http.MethodPost, "/api/users/wallet", gin.H{"walletAddress": "not-an-address"}, http.StatusBadRequest},
		{http.MethodPost, "/api/users/wallet", gin.H{}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			code, _ := perform(t, r, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, code)
		})
	}
}

func TestLoginAndProfile(t *testing.T) {
	r := newTestRouter(t)

	code, env := perform(t, r, http.MethodPost, "/api/users", gin.H{"email": "ada@example.com", "password": "secret", "name": "Ada"})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var user model.User
	decode(t, env, &user)
	assert.NotContains(t, string(env.Data), "secret")

	code, _ = perform(t, r, http.MethodPost, "/api/users/login", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = perform(t, r, http.MethodPost, "/api/users/login", gin.H{"email": "ada@example.com", "password": "secret"})
	require.Equal(t, http.StatusOK, code)
	var login service.LoginResponse
	decode(t, env, &login)
	require.NotEmpty(t, login.Token)

	code, env = perform(t, r, http.MethodGet, "/api/users/me", nil, "Authorization", "Bearer "+login.Token)
	require.Equal(t, http.StatusOK, code)
	var me model.User
	decode(t, env, &me)
	assert.Equal(t, user.ID, me.ID)

	code, _ = perform(t, r, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = perform(t, r, http.MethodPost, "/api/users/"+user.ID+"/wallet", gin.H{"walletAddress": aliceAddress})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = perform(t, r, http.MethodPost, "/api/users/wallet", gin.H{"walletAddress": aliceAddress})
	require.Equal(t, http.StatusOK, code)
	var walletUser model.User
	decode(t, env, &walletUser)
	assert.Equal(t, user.ID, walletUser.ID)

	code, env = perform(t, r, http.MethodPut, "/api/users/"+user.ID, gin.H{"name": "Ada L."})
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &me)
	assert.Equal(t, "Ada L.", me.Name)
	assert.Equal(t, "ada@example.com", me.Email)
}

func TestVerifyPayment(t *testing.T) {
	r := newTestRouter(t)

	code, env := perform(t, r, http.MethodPost, "/api/payments/verify", gin.H{"transactionHash": validTxHash, "amount": "2.5", "senderAddress": bobAddress})
	require.Equal(t, http.StatusOK, code)
	var v model.PaymentVerification
	decode(t, env, &v)
	assert.True(t, v.Valid)
	assert.Equal(t, aliceAddress, v.To)
	assert.Equal(t, bobAddress, v.From)
	assert.Equal(t, "2.5", v.Amount)

	code, env = perform(t, r, http.MethodPost, "/api/payments/verify", gin.H{"transactionHash": "0x12", "amount": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid transaction hash format", env.Message)
	decode(t, env, &v)
	assert.False(t, v.Valid)

	code, _ = perform(t, r, http.MethodPost, "/api/payments/verify", gin.H{"transactionHash": validTxHash})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = perform(t, r, http.MethodGet, "/api/payments/admin-address", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"address":"`+aliceAddress+`"}`, string(env.Data))
}

func TestHealthAndIndex(t *testing.T) {
	r := newTestRouter(t)

	code, env := perform(t, r, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","components":{"database":"up","chain":"disconnected"}}`, string(env.Data))

	code, env = perform(t, r, http.MethodGet, "/api", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), "/api/enrollments/:id/complete")
}

type fakeIssuer struct {
	minted []string
	owned  []model.OwnedNFT
	info   *model.NFTInfo
	err    error
}

func (f *fakeIssuer) CreateCertificateNFT(_ context.Context, recipient string, _ model.CertificateMetadata) (*model.MintResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.minted = append(f.minted, recipient)
	return &model.MintResult{TokenID: "42", CollectionID: "7", TransactionHash: "0xabc", MetadataURL: "ipfs://Qm"}, nil
}

func (f *fakeIssuer) ValidateAddress(address string) bool { return chain.ValidateAddress(address) }

func (f *fakeIssuer) GetUserNFTs(_ context.Context, _ string, collection *uint32) ([]model.OwnedNFT, error) {
	if collection == nil {
		return f.owned, nil
	}
	var out []model.OwnedNFT
	for _, nft := range f.owned {
		if nft.CollectionID == "7" && *collection == 7 {
			out = append(out, nft)
		}
	}
	return out, nil
}

func (f *fakeIssuer) GetNFTInfo(_ context.Context, collection, token uint32) (*model.NFTInfo, error) {
	if f.info == nil {
		return nil, util.ErrNFTNotFound
	}
	return f.info, nil
}

func (f *fakeIssuer) CollectionID() uint32 { return 1 }

func newNFTRouter(issuer *fakeIssuer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewNFTController(issuer)
	r := gin.New()
	r.POST("/api/nfts", ctrl.CreateNFT)
	r.POST("/api/nfts/validate-address", ctrl.ValidateAddress)
	r.GET("/api/nfts/user/:address", ctrl.GetUserNFTs)
	r.GET("/api/nfts/:collectionId/:tokenId", ctrl.GetNFTInfo)
	return r
}

func TestCreateNFT(t *testing.T) {
	issuer := &fakeIssuer{}
	r := newNFTRouter(issuer)
	metadata := gin.H{"name": "Certificate: Intro", "description": "Completed Intro"}

	code, env := perform(t, r, http.MethodPost, "/api/nfts", gin.H{"metadata": metadata})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "recipientAddress is required", env.Message)

	code, _ = perform(t, r, http.MethodPost, "/api/nfts", gin.H{"recipientAddress": "bogus", "metadata": metadata})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = perform(t, r, http.MethodPost, "/api/nfts", gin.H{"recipientAddress": bobAddress, "metadata": gin.H{"name": "x"}})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "metadata.name and metadata.description are required", env.Message)
	assert.Empty(t, issuer.minted)

	code, env = perform(t, r, http.MethodPost, "/api/nfts", gin.H{"recipientAddress": bobAddress, "metadata": metadata})
	require.Equal(t, http.StatusCreated, code)
	assert.JSONEq(t, `{"tokenId":"42","collectionId":"7","transactionHash":"0xabc","recipientAddress":"`+bobAddress+`","metadataUrl":"ipfs://Qm","pending":false}`, string(env.Data))

	issuer.err = util.Wrap(util.ErrUnavailable, chain.ErrNoSigner, "NFT admin account not configured")
	code, env = perform(t, r, http.MethodPost, "/api/nfts", gin.H{"recipientAddress": bobAddress, "metadata": metadata})
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, env.Message, "NFT admin account not configured")
}

func TestValidateAddressEndpoint(t *testing.T) {
	r := newNFTRouter(&fakeIssuer{})

	code, env := perform(t, r, http.MethodPost, "/api/nfts/validate-address", gin.H{"address": aliceAddress})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"valid":true`)

	code, env = perform(t, r, http.MethodPost, "/api/nfts/validate-address", gin.H{"address": "5Grwva"})
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"valid":false`)

	code, _ = perform(t, r, http.MethodPost, "/api/nfts/validate-address", gin.H{})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetUserNFTsEndpoint(t *testing.T) {
	issuer := &fakeIssuer{owned: []model.OwnedNFT{
		{CollectionID: "3", TokenID: "1"},
		{CollectionID: "7", TokenID: "2"},
		{CollectionID: "7", TokenID: "3"},
	}}
	r := newNFTRouter(issuer)

	code, env := perform(t, r, http.MethodGet, "/api/nfts/user/"+bobAddress, nil)
	require.Equal(t, http.StatusOK, code)
	var body struct {
		Address      string           `json:"address"`
		CollectionID string           `json:"collectionId"`
		NFTs         []model.OwnedNFT `json:"nfts"`
		Count        int              `json:"count"`
	}
	decode(t, env, &body)
	assert.Equal(t, "7", body.CollectionID)
	assert.Equal(t, 3, body.Count)

	code, env = perform(t, r, http.MethodGet, "/api/nfts/user/"+bobAddress+"?collectionId=7", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, env, &body)
	assert.Equal(t, "7", body.CollectionID)
	assert.Equal(t, 2, body.Count)

	code, _ = perform(t, r, http.MethodGet, "/api/nfts/user/"+bobAddress+"?collectionId=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = perform(t, r, http.MethodGet, "/api/nfts/user/nope", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetNFTInfoEndpoint(t *testing.T) {
	issuer := &fakeIssuer{}
	r := newNFTRouter(issuer)

	code, _ := perform(t, r, http.MethodGet, "/api/nfts/1/2", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = perform(t, r, http.MethodGet, "/api/nfts/x/2", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	issuer.info = &model.NFTInfo{CollectionID: "1", TokenID: "2", Owner: bobAddress, Pallet: "uniques"}
	code, env := perform(t, r, http.MethodGet, "/api/nfts/1/2", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), bobAddress)
}
