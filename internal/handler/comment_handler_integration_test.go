package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type commentJSON struct {
	ID       uint   `json:"id"`
	Post     uint   `json:"post"`
	Content  string `json:"content"`
	IsHidden bool   `json:"is_hidden"`
	Author   struct {
		ID string `json:"id"`
	} `json:"author"`
}

type commentList struct {
	Count   int64         `json:"count"`
	Results []commentJSON `json:"results"`
}

type CommentHandlerIntegrationTestSuite struct {
	apiSuite
}

func TestCommentHandlerIntegration(t *testing.T) {
	suite.Run(t, new(CommentHandlerIntegrationTestSuite))
}

func (s *CommentHandlerIntegrationTestSuite) countComments() int64 {
	var n int64
	s.Require().NoError(s.testDB.DB.Model(&models.Comment{}).Count(&n).Error)
	return n
}

func (s *CommentHandlerIntegrationTestSuite) TestCreateUnderMissingPost() {
	reader := s.fixtures.CreateUser(s.T())

	// Not found wins over both the missing token and the invalid body.
	s.requireError(s.do(http.MethodPost, "/api/posts/999/comments", map[string]any{}, ""), http.StatusNotFound, "blog_post_not_found")
	s.requireError(s.do(http.MethodPost, "/api/posts/999/comments", map[string]any{"content": ""}, s.fixtures.Token(s.T(), reader)), http.StatusNotFound, "blog_post_not_found")
	s.requireError(s.do(http.MethodPost, "/api/posts/999/comments", `{"content":`, s.fixtures.Token(s.T(), reader)), http.StatusNotFound, "blog_post_not_found")
	s.Equal(int64(0), s.countComments())
}

func (s *CommentHandlerIntegrationTestSuite) TestCreateUnderHiddenPost() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())
	post := s.fixtures.CreatePost(s.T(), author, testutil.Hidden())
	path := fmt.Sprintf("/api/posts/%d/comments", post.ID)
	body := map[string]any{"content": "first"}

	s.requireError(s.do(http.MethodPost, path, body, s.fixtures.Token(s.T(), author)), http.StatusNotFound, "blog_post_not_found")
	s.requireStatus(s.do(http.MethodPost, path, body, s.fixtures.Token(s.T(), admin)), http.StatusCreated)
}

func (s *CommentHandlerIntegrationTestSuite) TestCreateRequiresAuthentication() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	post := s.fixtures.CreatePost(s.T(), author)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), map[string]any{"content": "hi"}, "")
	s.requireError(w, http.StatusForbidden, "unauthorized_access")
}

func (s *CommentHandlerIntegrationTestSuite) TestCreateByPlainUser() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	reader := s.fixtures.CreateUser(s.T())
	other := s.fixtures.CreatePost(s.T(), author)
	post := s.fixtures.CreatePost(s.T(), author)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), map[string]any{
		"content":   "Nice post",
		"post":      other.ID,
		"author":    author.ID.String(),
		"is_hidden": true,
	}, s.fixtures.Token(s.T(), reader))
	s.requireStatus(w, http.StatusCreated)

	var got commentJSON
	testutil.DecodeJSON(s.T(), w, &got)
	s.Equal(post.ID, got.Post, "post comes from the route")
	s.Equal(reader.ID.String(), got.Author.ID, "author comes from the token")
	s.Equal("Nice post", got.Content)
	s.False(got.IsHidden)
}

func (s *CommentHandlerIntegrationTestSuite) TestCreateValidation() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	post := s.fixtures.CreatePost(s.T(), author)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), map[string]any{}, s.fixtures.Token(s.T(), author))

	body := s.requireError(w, http.StatusBadRequest, "invalid_blog_data")
	s.Equal([]string{"This field is required."}, body.FieldErrors(s.T())["content"])
}

func (s *CommentHandlerIntegrationTestSuite) TestListFiltersHiddenComments() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())
	post := s.fixtures.CreatePost(s.T(), author)
	otherPost := s.fixtures.CreatePost(s.T(), author)
	s.fixtures.CreateComment(s.T(), post, author, false)
	s.fixtures.CreateComment(s.T(), post, author, true)
	s.fixtures.CreateComment(s.T(), otherPost, author, false)

	var list commentList
	testutil.DecodeJSON(s.T(), s.do(http.MethodGet, "/api/comments", nil, ""), &list)
	s.Equal(int64(2), list.Count)
	for _, c := range list.Results {
		s.False(c.IsHidden)
	}

	testutil.DecodeJSON(s.T(), s.do(http.MethodGet, "/api/comments", nil, s.fixtures.Token(s.T(), admin)), &list)
	s.Equal(int64(3), list.Count)

	nested := fmt.Sprintf("/api/posts/%d/comments", post.ID)
	testutil.DecodeJSON(s.T(), s.do(http.MethodGet, nested, nil, s.fixtures.Token(s.T(), author)), &list)
	s.Equal(int64(1), list.Count)
	s.Require().Len(list.Results, 1)
	s.Equal(post.ID, list.Results[0].Post)

	testutil.DecodeJSON(s.T(), s.do(http.MethodGet, nested, nil, s.fixtures.Token(s.T(), admin)), &list)
	s.Equal(int64(2), list.Count)
}

func (s *CommentHandlerIntegrationTestSuite) TestRetrieveHiddenComment() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())
	post := s.fixtures.CreatePost(s.T(), author)
	comment := s.fixtures.CreateComment(s.T(), post, author, true)
	path := fmt.Sprintf("/api/comments/%d", comment.ID)

	s.requireError(s.do(http.MethodGet, path, nil, s.fixtures.Token(s.T(), author)), http.StatusNotFound, "comment_not_found")
	s.requireStatus(s.do(http.MethodGet, path, nil, s.fixtures.Token(s.T(), admin)), http.StatusOK)
}

func (s *CommentHandlerIntegrationTestSuite) TestUpdateAndDeleteOwnership() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	commenter := s.fixtures.CreateUser(s.T())
	stranger := s.fixtures.CreateUser(s.T())
	post := s.fixtures.CreatePost(s.T(), author)
	comment := s.fixtures.CreateComment(s.T(), post, commenter, false)
	path := fmt.Sprintf("/api/comments/%d", comment.ID)

	strangerToken := s.fixtures.Token(s.T(), stranger)
	s.requireError(s.do(http.MethodPatch, path, map[string]any{"content": "edited"}, strangerToken), http.StatusForbidden, "unauthorized_access")
	s.requireError(s.do(http.MethodDelete, path, nil, strangerToken), http.StatusForbidden, "unauthorized_access")
	// Owning the post does not grant rights over its comments.
	s.requireError(s.do(http.MethodDelete, path, nil, s.fixtures.Token(s.T(), author)), http.StatusForbidden, "unauthorized_access")

	commenterToken := s.fixtures.Token(s.T(), commenter)
	w := s.do(http.MethodPatch, path, map[string]any{"content": "edited"}, commenterToken)
	s.requireStatus(w, http.StatusOK)
	var got commentJSON
	testutil.DecodeJSON(s.T(), w, &got)
	s.Equal("edited", got.Content)

	s.requireStatus(s.do(http.MethodDelete, path, nil, commenterToken), http.StatusNoContent)
	s.Equal(int64(0), s.countComments())
}

func (s *CommentHandlerIntegrationTestSuite) TestUpdateMissingOrHiddenComment() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	post := s.fixtures.CreatePost(s.T(), author)
	hidden := s.fixtures.CreateComment(s.T(), post, author, true)
	token := s.fixtures.Token(s.T(), author)

	s.requireError(s.do(http.MethodPatch, "/api/comments/999", map[string]any{"content": "x"}, token), http.StatusNotFound, "comment_not_found")
	s.requireError(s.do(http.MethodDelete, fmt.Sprintf("/api/comments/%d", hidden.ID), nil, token), http.StatusNotFound, "comment_not_found")
}

func (s *CommentHandlerIntegrationTestSuite) TestWrongTypedUpdateResolvesCommentFirst() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	stranger := s.fixtures.CreateUser(s.T())
	post := s.fixtures.CreatePost(s.T(), author)
	comment := s.fixtures.CreateComment(s.T(), post, author, false)
	path := fmt.Sprintf("/api/comments/%d", comment.ID)
	body := map[string]any{"content": 7}

	s.requireError(s.do(http.MethodPatch, path, body, ""), http.StatusForbidden, "unauthorized_access")
	s.requireError(s.do(http.MethodPatch, path, body, s.fixtures.Token(s.T(), stranger)), http.StatusForbidden, "unauthorized_access")
	s.requireError(s.do(http.MethodPatch, "/api/comments/999", body, s.fixtures.Token(s.T(), author)), http.StatusNotFound, "comment_not_found")
	s.requireError(s.do(http.MethodPatch, path, body, s.fixtures.Token(s.T(), author)), http.StatusBadRequest, "invalid_blog_data")
}
