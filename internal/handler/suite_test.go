package handler_test

import (
	"net/http/httptest"

	"github.com/Baaaki/blog-platform/internal/router"
	"github.com/Baaaki/blog-platform/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
)

// apiSuite runs requests through the full router against a private SQLite
// database. Every test starts from empty tables.
type apiSuite struct {
	suite.Suite
	testDB   *testutil.TestDatabase
	fixtures *testutil.Fixtures
	router   *gin.Engine
}

func (s *apiSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)

	s.testDB = testutil.SetupTestDatabase(s.T())
	cfg := testutil.TestConfig()

	s.fixtures = testutil.NewFixtures(s.testDB.DB, cfg)
	s.router = router.New(router.Deps{
		Config: cfg,
		DB:     s.testDB.DB,
	})
}

func (s *apiSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *apiSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *apiSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	return testutil.DoJSON(s.T(), s.router, method, path, body, token)
}

// requireError asserts status and error code and returns the envelope.
func (s *apiSuite) requireError(w *httptest.ResponseRecorder, status int, code string) testutil.ErrorBody {
	s.Require().Equal(status, w.Code, w.Body.String())

	var body testutil.ErrorBody
	testutil.DecodeJSON(s.T(), w, &body)
	s.Require().Equal(code, body.Error)
	return body
}

func (s *apiSuite) requireStatus(w *httptest.ResponseRecorder, status int) {
	s.Require().Equal(status, w.Code, w.Body.String())
}
