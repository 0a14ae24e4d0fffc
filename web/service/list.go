package service

import (
	"strings"

	"gorm.io/gorm"

	"github.com/taskwire/taskwire/database"
	"github.com/taskwire/taskwire/database/model"
)

// ListService manages sheets: naming, categories and membership. Logical
// actions that issue several statements run inside one transaction so no
// partial state ever becomes visible.
type ListService struct{}

// CreateList creates a sheet owned by ownerID, with the owner as its only
// member.
func (s *ListService) CreateList(name string, ownerID int) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationErrorf("sheet name can not be empty")
	}

	list := &model.List{
		Name:       name,
		Categories: model.StringArray{},
		UserIds:    model.IntArray{ownerID},
		AdmId:      ownerID,
	}
	if err := database.GetDB().Create(list).Error; err != nil {
		return nil, wrapStore("insert list", err)
	}
	return list, nil
}

// GetList fetches a sheet by id.
func (s *ListService) GetList(id int) (*model.List, error) {
	return getList(database.GetDB(), id)
}

func getList(db *gorm.DB, id int) (*model.List, error) {
	list := &model.List{}
	err := db.Model(model.List{}).Where("id = ?", id).First(list).Error
	if database.IsNotFound(err) {
		return nil, newNotFoundError("list", id)
	} else if err != nil {
		return nil, wrapStore("select list by id", err)
	}
	return list, nil
}

// GetListsForUser returns every sheet the user is a member of. Membership
// lives in a JSON array column, so filtering happens here rather than in SQL.
func (s *ListService) GetListsForUser(userID int) ([]*model.List, error) {
	db := database.GetDB()
	var lists []*model.List
	if err := db.Model(model.List{}).Find(&lists).Error; err != nil {
		return nil, wrapStore("select lists", err)
	}

	mine := make([]*model.List, 0, len(lists))
	for _, list := range lists {
		if list.HasMember(userID) {
			mine = append(mine, list)
		}
	}
	return mine, nil
}

// Rename trims and sets the sheet name.
func (s *ListService) Rename(id int, name string) (*model.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newValidationErrorf("sheet name can not be empty")
	}

	var renamed *model.List
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		list, err := getList(tx, id)
		if err != nil {
			return err
		}
		list.Name = name
		if err := tx.Save(list).Error; err != nil {
			return wrapStore("update list name", err)
		}
		renamed = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return renamed, nil
}

// Delete removes the sheet row. Tasks keep their list_id and become
// orphaned; the board treats a missing list as gone.
func (s *ListService) Delete(id int) error {
	res := database.GetDB().Where("id = ?", id).Delete(&model.List{})
	if res.Error != nil {
		return wrapStore("delete list", res.Error)
	}
	if res.RowsAffected == 0 {
		return newNotFoundError("list", id)
	}
	return nil
}

// AddCategory appends a category to the sheet. Duplicates are rejected so
// repeated adds can never grow the set.
func (s *ListService) AddCategory(listID int, category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return newValidationErrorf("category can not be empty")
	}

	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		list, err := getList(tx, listID)
		if err != nil {
			return err
		}
		if list.Categories.Contains(category) {
			return newValidationErrorf("category %q already exists on list %d", category, listID)
		}
		list.Categories = append(list.Categories, category)
		if err := tx.Save(list).Error; err != nil {
			return wrapStore("update list categories", err)
		}
		return nil
	})
}

// RemoveCategory removes a category from the sheet and retags every task in
// that sheet still carrying it to the uncategorized sentinel. Both writes
// commit together.
func (s *ListService) RemoveCategory(listID int, category string) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		list, err := getList(tx, listID)
		if err != nil {
			return err
		}
		if !list.Categories.Contains(category) {
			return newNotFoundError("category", category)
		}
		list.Categories = list.Categories.Remove(category)
		if err := tx.Save(list).Error; err != nil {
			return wrapStore("update list categories", err)
		}

		err = tx.Model(model.Task{}).
			Where("list_id = ? AND category = ?", listID, category).
			Update("category", model.Uncategorized).
			Error
		if err != nil {
			return wrapStore("retag tasks of removed category", err)
		}
		return nil
	})
}

// AddMember looks up a user by username and appends their id to the sheet's
// member set. Lookup and append share one transaction so the membership
// update cannot race a concurrent account delete.
func (s *ListService) AddMember(listID int, username string) (*model.User, error) {
	var member *model.User
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		user := &model.User{}
		err := tx.Model(model.User{}).Where("username = ?", username).First(user).Error
		if database.IsNotFound(err) {
			return newNotFoundError("user", username)
		} else if err != nil {
			return wrapStore("select user by username", err)
		}

		list, err := getList(tx, listID)
		if err != nil {
			return err
		}
		if list.HasMember(user.Id) {
			return newValidationErrorf("user %q is already a member of list %d", username, listID)
		}
		list.UserIds = append(list.UserIds, user.Id)
		if err := tx.Save(list).Error; err != nil {
			return wrapStore("update list members", err)
		}
		member = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember drops a user id from the sheet's member set. Removing an id
// that is not present is a no-op, matching array_remove semantics. Tasks
// assigned to the removed user keep their assignee.
func (s *ListService) RemoveMember(listID int, userID int) error {
	return database.GetDB().Transaction(func(tx *gorm.DB) error {
		list, err := getList(tx, listID)
		if err != nil {
			return err
		}
		list.UserIds = list.UserIds.Remove(userID)
		if err := tx.Save(list).Error; err != nil {
			return wrapStore("update list members", err)
		}
		return nil
	})
}
