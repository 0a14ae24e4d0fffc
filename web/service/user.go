// Package service provides the business logic of the task board: account
// handling and the mutation handlers behind every realtime event.
package service

import (
	"strings"

	"github.com/taskwire/taskwire/database"
	"github.com/taskwire/taskwire/database/model"
	"github.com/taskwire/taskwire/logger"
	"github.com/taskwire/taskwire/util/crypto"
)

// UserService manages accounts and credential checks.
type UserService struct{}

// CheckUser returns the user when username and password match, nil otherwise.
func (s *UserService) CheckUser(username string, password string) *model.User {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("username = ?", username).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil
	}

	if !crypto.CheckPassword(user.Password, password) {
		return nil
	}
	return user
}

// CreateUser registers a new account. The username must be unused.
func (s *UserService) CreateUser(username, password, name string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, newValidationErrorf("username can not be empty")
	}
	if password == "" {
		return nil, newValidationErrorf("password can not be empty")
	}

	db := database.GetDB()

	var count int64
	err := db.Model(model.User{}).Where("username = ?", username).Count(&count).Error
	if err != nil {
		return nil, wrapStore("count users by username", err)
	}
	if count > 0 {
		return nil, newValidationErrorf("username %q is already taken", username)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: hash,
		Name:     name,
	}
	if err := db.Create(user).Error; err != nil {
		return nil, wrapStore("insert user", err)
	}
	return user, nil
}

// GetUserByUsername looks up an account by its unique username.
func (s *UserService) GetUserByUsername(username string) (*model.User, error) {
	db := database.GetDB()

	user := &model.User{}
	err := db.Model(model.User{}).
		Where("username = ?", username).
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, newNotFoundError("user", username)
	} else if err != nil {
		return nil, wrapStore("select user by username", err)
	}
	return user, nil
}

// GetUsers fetches the users for the given ids, skipping any that no longer
// exist.
func (s *UserService) GetUsers(ids []int) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	db := database.GetDB()
	var users []*model.User
	err := db.Model(model.User{}).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, wrapStore("select users by ids", err)
	}
	return users, nil
}
