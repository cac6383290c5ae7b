package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type postJSON struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Author struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"author"`
	Categories []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"categories"`
	Tags []struct {
		ID   uint   `json:"id"`
		Name string `json:"name"`
	} `json:"tags"`
	Comments []struct {
		ID       uint `json:"id"`
		IsHidden bool `json:"is_hidden"`
	} `json:"comments"`
	IsHidden bool `json:"is_hidden"`
}

type postList struct {
	Count   int64      `json:"count"`
	Results []postJSON `json:"results"`
}

type PostHandlerIntegrationTestSuite struct {
	apiSuite
}

func TestPostHandlerIntegration(t *testing.T) {
	suite.Run(t, new(PostHandlerIntegrationTestSuite))
}

func (s *PostHandlerIntegrationTestSuite) listPosts(query, token string) postList {
	w := s.do(http.MethodGet, "/api/posts"+query, nil, token)
	s.requireStatus(w, http.StatusOK)

	var list postList
	testutil.DecodeJSON(s.T(), w, &list)
	return list
}

func (s *PostHandlerIntegrationTestSuite) countPosts() int64 {
	var n int64
	s.Require().NoError(s.testDB.DB.Model(&models.BlogPost{}).Count(&n).Error)
	return n
}

func (s *PostHandlerIntegrationTestSuite) TestListHidesHiddenPostsFromNonAdmins() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	reader := s.fixtures.CreateUser(s.T())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())

	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("visible"))
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("hidden"), testutil.Hidden())

	for name, token := range map[string]string{
		"anonymous": "",
		"reader":    s.fixtures.Token(s.T(), reader),
		"author":    s.fixtures.Token(s.T(), author),
	} {
		list := s.listPosts("", token)
		s.Equal(int64(1), list.Count, name)
		s.Require().Len(list.Results, 1, name)
		s.Equal("visible", list.Results[0].Title, name)
		s.False(list.Results[0].IsHidden, name)
	}

	list := s.listPosts("", s.fixtures.Token(s.T(), admin))
	s.Equal(int64(2), list.Count)
	s.Len(list.Results, 2)
}

func (s *PostHandlerIntegrationTestSuite) TestRetrieveHiddenPost() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())
	post := s.fixtures.CreatePost(s.T(), author, testutil.Hidden())
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	s.requireError(s.do(http.MethodGet, path, nil, ""), http.StatusNotFound, "blog_post_not_found")
	s.requireError(s.do(http.MethodGet, path, nil, s.fixtures.Token(s.T(), author)), http.StatusNotFound, "blog_post_not_found")
	s.requireStatus(s.do(http.MethodGet, path, nil, s.fixtures.Token(s.T(), admin)), http.StatusOK)
}

func (s *PostHandlerIntegrationTestSuite) TestRetrieveMissingAndMalformedID() {
	s.requireError(s.do(http.MethodGet, "/api/posts/999", nil, ""), http.StatusNotFound, "blog_post_not_found")
	s.requireError(s.do(http.MethodGet, "/api/posts/abc", nil, ""), http.StatusNotFound, "blog_post_not_found")
}

func (s *PostHandlerIntegrationTestSuite) TestEmbeddedCommentsFollowVisibility() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())
	post := s.fixtures.CreatePost(s.T(), author)
	s.fixtures.CreateComment(s.T(), post, author, false)
	s.fixtures.CreateComment(s.T(), post, author, true)
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	var got postJSON
	testutil.DecodeJSON(s.T(), s.do(http.MethodGet, path, nil, ""), &got)
	s.Require().Len(got.Comments, 1)
	s.False(got.Comments[0].IsHidden)

	testutil.DecodeJSON(s.T(), s.do(http.MethodGet, path, nil, s.fixtures.Token(s.T(), admin)), &got)
	s.Len(got.Comments, 2)
}

func (s *PostHandlerIntegrationTestSuite) TestCreateRequiresBlogger() {
	reader := s.fixtures.CreateUser(s.T())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())

	valid := map[string]any{"title": "Hello", "content": "World"}
	invalid := map[string]any{"title": ""}

	for _, token := range []string{"", s.fixtures.Token(s.T(), reader), s.fixtures.Token(s.T(), admin)} {
		s.requireError(s.do(http.MethodPost, "/api/posts", valid, token), http.StatusForbidden, "unauthorized_access")
		s.requireError(s.do(http.MethodPost, "/api/posts", invalid, token), http.StatusForbidden, "unauthorized_access")
		s.requireError(s.do(http.MethodPost, "/api/posts", `{"title":`, token), http.StatusForbidden, "unauthorized_access")
	}
	s.Equal(int64(0), s.countPosts())
}

func (s *PostHandlerIntegrationTestSuite) TestCreateSetsAuthorFromToken() {
	blogger := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	other := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	category := s.fixtures.CreateCategory(s.T(), "Go")
	tag := s.fixtures.CreateTag(s.T(), "generics")

	w := s.do(http.MethodPost, "/api/posts", map[string]any{
		"title":      "Type parameters",
		"content":    "A tour",
		"author":     other.ID.String(),
		"categories": []uint{category.ID},
		"tags":       []uint{tag.ID},
		"is_hidden":  true,
	}, s.fixtures.Token(s.T(), blogger))
	s.requireStatus(w, http.StatusCreated)

	var got postJSON
	testutil.DecodeJSON(s.T(), w, &got)
	s.Equal(blogger.ID.String(), got.Author.ID)
	s.False(got.IsHidden, "only admins may hide posts")
	s.Require().Len(got.Categories, 1)
	s.Equal("Go", got.Categories[0].Name)
	s.Require().Len(got.Tags, 1)
	s.Equal("generics", got.Tags[0].Name)

	var stored models.BlogPost
	s.Require().NoError(s.testDB.DB.First(&stored, got.ID).Error)
	s.Equal(blogger.ID, stored.AuthorID)
}

func (s *PostHandlerIntegrationTestSuite) TestCreateValidation() {
	blogger := s.fixtures.CreateUser(s.T(), testutil.Blogger())

	w := s.do(http.MethodPost, "/api/posts", map[string]any{"title": "   "}, s.fixtures.Token(s.T(), blogger))

	body := s.requireError(w, http.StatusBadRequest, "invalid_blog_data")
	fields := body.FieldErrors(s.T())
	s.Equal([]string{"This field may not be blank."}, fields["title"])
	s.Equal([]string{"This field is required."}, fields["content"])
}

func (s *PostHandlerIntegrationTestSuite) TestCreateIsAtomic() {
	blogger := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	c1 := s.fixtures.CreateCategory(s.T(), "One")
	c2 := s.fixtures.CreateCategory(s.T(), "Two")
	token := s.fixtures.Token(s.T(), blogger)

	// One invalid field, two valid categories.
	w := s.do(http.MethodPost, "/api/posts", map[string]any{
		"title":      "",
		"content":    "body",
		"categories": []uint{c1.ID, c2.ID},
	}, token)
	s.requireError(w, http.StatusBadRequest, "invalid_blog_data")

	// Valid fields, one unknown category.
	w = s.do(http.MethodPost, "/api/posts", map[string]any{
		"title":      "ok",
		"content":    "body",
		"categories": []uint{c1.ID, 9999},
	}, token)
	body := s.requireError(w, http.StatusBadRequest, "invalid_blog_data")
	s.Equal([]string{`Invalid pk "9999" - object does not exist.`}, body.FieldErrors(s.T())["categories"])

	s.Equal(int64(0), s.countPosts())
	var links int64
	s.Require().NoError(s.testDB.DB.Table("blog_post_categories").Count(&links).Error)
	s.Equal(int64(0), links)
}

func (s *PostHandlerIntegrationTestSuite) TestUpdateIsAtomic() {
	blogger := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	old := s.fixtures.CreateCategory(s.T(), "Old")
	c1 := s.fixtures.CreateCategory(s.T(), "One")
	c2 := s.fixtures.CreateCategory(s.T(), "Two")
	post := s.fixtures.CreatePost(s.T(), blogger, testutil.WithTitle("before"), testutil.WithCategories(*old))

	w := s.do(http.MethodPatch, fmt.Sprintf("/api/posts/%d", post.ID), map[string]any{
		"title":      "",
		"categories": []uint{c1.ID, c2.ID},
	}, s.fixtures.Token(s.T(), blogger))
	s.requireError(w, http.StatusBadRequest, "invalid_blog_data")

	var stored models.BlogPost
	s.Require().NoError(s.testDB.DB.Preload("Categories").First(&stored, post.ID).Error)
	s.Equal("before", stored.Title)
	s.Require().Len(stored.Categories, 1)
	s.Equal(old.ID, stored.Categories[0].ID)
}

func (s *PostHandlerIntegrationTestSuite) TestUpdateReplacesAssociations() {
	blogger := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	old := s.fixtures.CreateTag(s.T(), "old")
	fresh := s.fixtures.CreateTag(s.T(), "fresh")
	post := s.fixtures.CreatePost(s.T(), blogger, testutil.WithTags(*old))

	w := s.do(http.MethodPatch, fmt.Sprintf("/api/posts/%d", post.ID), map[string]any{
		"tags": []uint{fresh.ID},
	}, s.fixtures.Token(s.T(), blogger))
	s.requireStatus(w, http.StatusOK)

	var got postJSON
	testutil.DecodeJSON(s.T(), w, &got)
	s.Require().Len(got.Tags, 1)
	s.Equal("fresh", got.Tags[0].Name)
	s.Equal(post.Title, got.Title, "absent fields are left alone by PATCH")
}

func (s *PostHandlerIntegrationTestSuite) TestPutRequiresAllFields() {
	blogger := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	post := s.fixtures.CreatePost(s.T(), blogger)

	w := s.do(http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), map[string]any{
		"title": "only a title",
	}, s.fixtures.Token(s.T(), blogger))

	body := s.requireError(w, http.StatusBadRequest, "invalid_blog_data")
	s.Contains(body.FieldErrors(s.T()), "content")
}

func (s *PostHandlerIntegrationTestSuite) TestUpdateAndDeleteByNonAuthor() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	stranger := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	post := s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("mine"))
	path := fmt.Sprintf("/api/posts/%d", post.ID)
	token := s.fixtures.Token(s.T(), stranger)

	s.requireError(s.do(http.MethodPatch, path, map[string]any{"title": "theirs"}, token), http.StatusForbidden, "unauthorized_access")
	// Ownership is checked before the payload.
	s.requireError(s.do(http.MethodPatch, path, map[string]any{"title": ""}, token), http.StatusForbidden, "unauthorized_access")
	s.requireError(s.do(http.MethodDelete, path, nil, token), http.StatusForbidden, "unauthorized_access")
	s.requireError(s.do(http.MethodDelete, path, nil, ""), http.StatusForbidden, "unauthorized_access")

	s.Equal(int64(1), s.countPosts())
}

func (s *PostHandlerIntegrationTestSuite) TestAdminCanModerateAnyPost() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	admin := s.fixtures.CreateUser(s.T(), testutil.Admin())
	post := s.fixtures.CreatePost(s.T(), author)
	path := fmt.Sprintf("/api/posts/%d", post.ID)
	token := s.fixtures.Token(s.T(), admin)

	w := s.do(http.MethodPatch, path, map[string]any{"is_hidden": true}, token)
	s.requireStatus(w, http.StatusOK)

	var got postJSON
	testutil.DecodeJSON(s.T(), w, &got)
	s.True(got.IsHidden)
	s.Equal(author.ID.String(), got.Author.ID, "author never changes")

	s.requireError(s.do(http.MethodGet, path, nil, ""), http.StatusNotFound, "blog_post_not_found")
	s.requireStatus(s.do(http.MethodDelete, path, nil, token), http.StatusNoContent)
	s.Equal(int64(0), s.countPosts())
}

func (s *PostHandlerIntegrationTestSuite) TestUpdateMissingOrHiddenPost() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	hidden := s.fixtures.CreatePost(s.T(), author, testutil.Hidden())
	token := s.fixtures.Token(s.T(), author)

	s.requireError(s.do(http.MethodPatch, "/api/posts/999", map[string]any{"title": "x"}, token), http.StatusNotFound, "blog_post_not_found")
	s.requireError(s.do(http.MethodDelete, "/api/posts/999", nil, token), http.StatusNotFound, "blog_post_not_found")

	path := fmt.Sprintf("/api/posts/%d", hidden.ID)
	s.requireError(s.do(http.MethodPatch, path, map[string]any{"title": "x"}, token), http.StatusNotFound, "blog_post_not_found")
	s.requireError(s.do(http.MethodDelete, path, nil, token), http.StatusNotFound, "blog_post_not_found")
}

func (s *PostHandlerIntegrationTestSuite) TestDeleteRemovesLinksAndComments() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	category := s.fixtures.CreateCategory(s.T(), "Kept")
	post := s.fixtures.CreatePost(s.T(), author, testutil.WithCategories(*category))
	s.fixtures.CreateComment(s.T(), post, author, false)

	s.requireStatus(s.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), nil, s.fixtures.Token(s.T(), author)), http.StatusNoContent)

	var comments, links, categories int64
	s.Require().NoError(s.testDB.DB.Model(&models.Comment{}).Count(&comments).Error)
	s.Require().NoError(s.testDB.DB.Table("blog_post_categories").Count(&links).Error)
	s.Require().NoError(s.testDB.DB.Model(&models.Category{}).Count(&categories).Error)
	s.Equal(int64(0), comments)
	s.Equal(int64(0), links)
	s.Equal(int64(1), categories)
}

func (s *PostHandlerIntegrationTestSuite) TestSearch() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	travel := s.fixtures.CreateCategory(s.T(), "Travel")
	rust := s.fixtures.CreateTag(s.T(), "Rustacean")

	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("Gopher notes"), testutil.WithContent("channels"))
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("Trip"), testutil.WithContent("a story about GOPHERS"))
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("Lisbon"), testutil.WithContent("x"), testutil.WithCategories(*travel))
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("Borrowing"), testutil.WithContent("y"), testutil.WithTags(*rust))
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("Hidden gopher"), testutil.WithContent("z"), testutil.Hidden())

	s.Equal(int64(2), s.listPosts("?search=gopher", "").Count)
	s.Equal(int64(1), s.listPosts("?search=travel", "").Count)
	s.Equal(int64(1), s.listPosts("?search=rustacean", "").Count)
	s.Equal(int64(0), s.listPosts("?search=nothing-matches", "").Count)
}

func (s *PostHandlerIntegrationTestSuite) TestOrderingAndPagination() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	for _, title := range []string{"charlie", "alpha", "bravo"} {
		s.fixtures.CreatePost(s.T(), author, testutil.WithTitle(title))
	}

	list := s.listPosts("?ordering=title", "")
	s.Require().Len(list.Results, 3)
	s.Equal([]string{"alpha", "bravo", "charlie"}, titles(list))

	list = s.listPosts("?ordering=-title", "")
	s.Equal([]string{"charlie", "bravo", "alpha"}, titles(list))

	list = s.listPosts("?ordering=title&page=2&page_size=2", "")
	s.Equal(int64(3), list.Count)
	s.Equal([]string{"charlie"}, titles(list))
}

func titles(list postList) []string {
	out := make([]string, 0, len(list.Results))
	for _, p := range list.Results {
		out = append(out, p.Title)
	}
	return out
}

func (s *PostHandlerIntegrationTestSuite) TestWrongTypedUpdateResolvesPostFirst() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	stranger := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	post := s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("mine"))
	hidden := s.fixtures.CreatePost(s.T(), author, testutil.Hidden())
	path := fmt.Sprintf("/api/posts/%d", post.ID)
	body := map[string]any{"title": 5, "content": 7}

	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		s.requireError(s.do(method, path, body, ""), http.StatusForbidden, "unauthorized_access")
		s.requireError(s.do(method, path, body, s.fixtures.Token(s.T(), stranger)), http.StatusForbidden, "unauthorized_access")
		s.requireError(s.do(method, "/api/posts/999", body, s.fixtures.Token(s.T(), author)), http.StatusNotFound, "blog_post_not_found")
		s.requireError(s.do(method, fmt.Sprintf("/api/posts/%d", hidden.ID), body, s.fixtures.Token(s.T(), author)), http.StatusNotFound, "blog_post_not_found")
		s.requireError(s.do(method, path, `{"title":`, s.fixtures.Token(s.T(), stranger)), http.StatusForbidden, "unauthorized_access")

		w := s.do(method, path, body, s.fixtures.Token(s.T(), author))
		errBody := s.requireError(w, http.StatusBadRequest, "invalid_blog_data")
		s.Contains(errBody.FieldErrors(s.T()), "title")
	}
}

func (s *PostHandlerIntegrationTestSuite) TestSearchTreatsWildcardsLiterally() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("100% done"), testutil.WithContent("x"))
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("snake_case"), testutil.WithContent("y"))
	s.fixtures.CreatePost(s.T(), author, testutil.WithTitle("plain"), testutil.WithContent("z"))

	s.Equal(int64(1), s.listPosts("?search=%25", "").Count)
	s.Equal(int64(1), s.listPosts("?search=_", "").Count)
	s.Equal(int64(1), s.listPosts("?search=e_c", "").Count)
	s.Equal(int64(0), s.listPosts("?search=%5C", "").Count)
}

func (s *PostHandlerIntegrationTestSuite) TestHugePageNumber() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	s.fixtures.CreatePost(s.T(), author)
	s.fixtures.CreatePost(s.T(), author)

	list := s.listPosts("?page=9223372036854775807", "")
	s.Equal(int64(2), list.Count)
	s.Empty(list.Results)

	list = s.listPosts("?page=9223372036854775807&page_size=1", "")
	s.Equal(int64(2), list.Count)
	s.Empty(list.Results)
}

func (s *PostHandlerIntegrationTestSuite) TestDeletedAuthorStillRendered() {
	author := s.fixtures.CreateUser(s.T(), testutil.Blogger())
	commenter := s.fixtures.CreateUser(s.T())
	post := s.fixtures.CreatePost(s.T(), author)
	comment := s.fixtures.CreateComment(s.T(), post, commenter, false)

	s.Require().NoError(s.testDB.DB.Delete(author).Error)
	s.Require().NoError(s.testDB.DB.Delete(commenter).Error)

	var got postJSON
	w := s.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil, "")
	s.requireStatus(w, http.StatusOK)
	testutil.DecodeJSON(s.T(), w, &got)
	s.Equal(author.ID.String(), got.Author.ID)
	s.Equal(author.Username, got.Author.Username)

	var c struct {
		Author struct {
			ID string `json:"id"`
		} `json:"author"`
	}
	w = s.do(http.MethodGet, fmt.Sprintf("/api/comments/%d", comment.ID), nil, "")
	s.requireStatus(w, http.StatusOK)
	testutil.DecodeJSON(s.T(), w, &c)
	s.Equal(commenter.ID.String(), c.Author.ID)
}
