package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Baaaki/blog-platform/internal/config"
	"github.com/Baaaki/blog-platform/internal/database"
	"github.com/Baaaki/blog-platform/internal/models"
	"github.com/Baaaki/blog-platform/internal/repository"
	"github.com/Baaaki/blog-platform/internal/security"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bootstrap accounts and demo content for the blog API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		database.Connect(config.Load())
		return database.Migrate(database.DB)
	},
	SilenceUsage: true,
}

var accountFlags struct {
	username string
	email    string
	password string
	admin    bool
	blogger  bool
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Create an account, by default an admin from ADMIN_* variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if accountFlags.username == "" || accountFlags.password == "" {
			return fmt.Errorf("username and password are required (flags or ADMIN_USERNAME, ADMIN_PASSWORD)")
		}

		user, created, err := ensureUser(cmd.Context(), database.DB, models.User{
			Username:  accountFlags.username,
			Email:     accountFlags.email,
			IsAdmin:   accountFlags.admin,
			IsBlogger: accountFlags.blogger,
		}, accountFlags.password)
		if err != nil {
			return err
		}

		if !created {
			log.Println("User already exists:", user.Username)
			return nil
		}
		log.Println("User created:", user.Username)
		log.Println("   Admin:", user.IsAdmin, " Blogger:", user.IsBlogger)
		return nil
	},
}

var demoFlags struct {
	posts    int
	comments int
	seed     int64
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Fill the database with generated bloggers, posts and comments",
	RunE: func(cmd *cobra.Command, args []string) error {
		return seedDemo(cmd.Context(), database.DB, demoFlags.posts, demoFlags.comments, demoFlags.seed)
	},
}

func init() {
	userCmd.Flags().StringVar(&accountFlags.username, "username", os.Getenv("ADMIN_USERNAME"), "account username")
	userCmd.Flags().StringVar(&accountFlags.email, "email", os.Getenv("ADMIN_EMAIL"), "account email")
	userCmd.Flags().StringVar(&accountFlags.password, "password", os.Getenv("ADMIN_PASSWORD"), "account password")
	userCmd.Flags().BoolVar(&accountFlags.admin, "admin", true, "grant the admin capability")
	userCmd.Flags().BoolVar(&accountFlags.blogger, "blogger", false, "grant the blogger capability")

	demoCmd.Flags().IntVar(&demoFlags.posts, "posts", 20, "number of posts")
	demoCmd.Flags().IntVar(&demoFlags.comments, "comments", 3, "comments per post")
	demoCmd.Flags().Int64Var(&demoFlags.seed, "seed", 0, "random seed, 0 picks one")

	rootCmd.AddCommand(userCmd, demoCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// ensureUser creates u with the given password unless the username is taken.
func ensureUser(ctx context.Context, db *gorm.DB, u models.User, password string) (*models.User, bool, error) {
	repo := repository.NewUserRepository(db)

	existing, err := repo.GetUserByUsername(ctx, u.Username)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, false, fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	if err := repo.CreateUser(ctx, &u); err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return &u, true, nil
}

func seedDemo(ctx context.Context, db *gorm.DB, posts, commentsPerPost int, seed int64) error {
	faker := gofakeit.New(seed)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := make([]models.Category, 0, 4)
		for _, name := range []string{"Engineering", "Travel", "Food", "Culture"} {
			c := models.Category{Name: name, Description: faker.Sentence(8)}
			if err := tx.Where(models.Category{Name: name}).FirstOrCreate(&c).Error; err != nil {
				return err
			}
			categories = append(categories, c)
		}

		tags := make([]models.Tag, 0, 8)
		for len(tags) < 8 {
			t := models.Tag{Name: faker.BuzzWord()}
			if err := tx.Where(models.Tag{Name: t.Name}).FirstOrCreate(&t).Error; err != nil {
				return err
			}
			tags = append(tags, t)
		}

		var authors []models.User
		for i := 0; i < 3; i++ {
			u, _, err := ensureUser(ctx, tx, models.User{
				Username:  faker.Username(),
				Email:     faker.Email(),
				FirstName: faker.FirstName(),
				LastName:  faker.LastName(),
				IsBlogger: true,
			}, faker.Password(true, true, true, false, false, 14))
			if err != nil {
				return err
			}
			authors = append(authors, *u)
		}

		for i := 0; i < posts; i++ {
			author := authors[faker.Number(0, len(authors)-1)]
			post := models.BlogPost{
				Title:      faker.Sentence(faker.Number(3, 8)),
				Content:    faker.Paragraph(3, 4, 12, "\n\n"),
				AuthorID:   author.ID,
				Categories: []models.Category{categories[faker.Number(0, len(categories)-1)]},
				Tags:       []models.Tag{tags[i%len(tags)], tags[(i+3)%len(tags)]},
				IsHidden:   faker.Number(1, 10) == 1,
			}
			if err := tx.Omit("Author", "Comments", "Categories.*", "Tags.*").Create(&post).Error; err != nil {
				return err
			}
			for j := 0; j < commentsPerPost; j++ {
				comment := models.Comment{
					PostID:   post.ID,
					AuthorID: authors[faker.Number(0, len(authors)-1)].ID,
					Content:  faker.Sentence(faker.Number(5, 20)),
				}
				if err := tx.Omit("Author").Create(&comment).Error; err != nil {
					return err
				}
			}
		}

		log.Printf("Seeded %d posts by %d bloggers", posts, len(authors))
		return nil
	})
}
