package repository

import (
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/fieldops/missiond/internal/model"
)

var _ UserRepository = &UserFileRepository{}

type UserFileRepository struct {
	userFile string
	logger   *slog.Logger
	users    map[string]*model.User

	watcher *fsnotify.Watcher

	mx sync.RWMutex
}

func NewFileUserRepo(userFile string) *UserFileRepository {
	um := &UserFileRepository{
		logger:   slog.Default().With("logger", "user_repo"),
		userFile: userFile,
		users:    make(map[string]*model.User),
		mx:       sync.RWMutex{},
	}

	if err := um.loadUsersFile(); err != nil {
		um.logger.Error("error loading users file", slog.Any("error", err))
	}

	if len(um.users) == 0 {
		um.logger.Info("no valid users found - create one")

		bytes, _ := bcrypt.GenerateFromPassword([]byte("11111"), 14)

		um.users["user"] = &model.User{
			Login:    "user",
			Password: string(bytes),
		}
	}

	return um
}

func (r *UserFileRepository) loadUsersFile() error {
	r.mx.Lock()
	defer r.mx.Unlock()

	if _, err := os.Lstat(r.userFile); os.IsNotExist(err) {
		// create empty file
		f, err := os.Create(r.userFile)
		if err != nil {
			return err
		}

		f.Close()

		return nil
	}

	dat, err := os.ReadFile(r.userFile)
	if err != nil {
		return err
	}

	users := make([]*model.User, 0)

	if err := yaml.Unmarshal(dat, &users); err != nil {
		return err
	}

	r.users = make(map[string]*model.User)

	for _, user := range users {
		if user.Login != "" {
			r.users[user.Login] = user
		}
	}

	return nil
}

func (r *UserFileRepository) Start() error {
	var err error

	r.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := r.watcher.Add(r.userFile); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-r.watcher.Events:
				if !ok {
					return
				}

				if event.Has(fsnotify.Write) {
					r.logger.Info("users file changed, reloading")

					if err := r.loadUsersFile(); err != nil {
						r.logger.Error("reload error", slog.Any("error", err))
					}
				}
			case err, ok := <-r.watcher.Errors:
				if !ok {
					return
				}

				r.logger.Error("watcher error", slog.Any("error", err))
			}
		}
	}()

	return nil
}

func (r *UserFileRepository) Stop() {
	if r.watcher != nil {
		_ = r.watcher.Close()
	}
}

func (r *UserFileRepository) CheckUserAuth(user, password string) bool {
	r.mx.RLock()
	defer r.mx.RUnlock()

	u, ok := r.users[user]
	if !ok {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (r *UserFileRepository) GetUser(username string) *model.User {
	r.mx.RLock()
	defer r.mx.RUnlock()

	return r.users[username]
}
