package graphql

import (
	"errors"
	"strconv"

	"github.com/graphql-go/graphql"

	"github.com/gfdmit/tierboard/internal/handlers/http/httperr"
	"github.com/gfdmit/tierboard/internal/model"
	"github.com/gfdmit/tierboard/internal/service"
)

func fail(err error) error {
	return errors.New(httperr.Message(err))
}

func idArg(p graphql.ResolveParams, name string) (int64, error) {
	raw, _ := p.Args[name].(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

func categoryArg(p graphql.ResolveParams) (model.Category, error) {
	raw, _ := p.Args["category"].(string)
	category, err := model.ParseCategory(raw)
	if err != nil {
		return 0, errors.New("unknown category")
	}
	return category, nil
}

func nonNull(t graphql.Input) *graphql.ArgumentConfig {
	return &graphql.ArgumentConfig{Type: graphql.NewNonNull(t)}
}

func getBoardQuery(gh *gqlHandler, boardType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: boardType,
		Args: graphql.FieldConfigArgument{
			"category": nonNull(graphql.String),
			"id":       nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			category, err := categoryArg(p)
			if err != nil {
				return nil, err
			}
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			board, err := gh.svc.ReadBoard(p.Context, ActorFrom(p.Context), category, id)
			if err != nil {
				return nil, fail(err)
			}
			return NewBoardView(board), nil
		},
	}
}

func getBoardsQuery(gh *gqlHandler, pageType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: pageType,
		Args: graphql.FieldConfigArgument{
			"category":   nonNull(graphql.String),
			"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
			"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
			"searchType": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
			"keyword":    &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			category, err := categoryArg(p)
			if err != nil {
				return nil, err
			}
			field, err := model.ParseSearchField(p.Args["searchType"].(string))
			if err != nil {
				return nil, errors.New("searchType must be title, body or nickname")
			}
			search := model.BoardSearch{Field: field, Keyword: p.Args["keyword"].(string)}
			page := service.Page{Limit: p.Args["limit"].(int), Offset: p.Args["offset"].(int)}
			boards, total, err := gh.svc.ListBoards(p.Context, ActorFrom(p.Context), category, page, search)
			if err != nil {
				return nil, fail(err)
			}
			return boardPage{Items: boardViews(boards), Total: total}, nil
		},
	}
}

func getNoticesQuery(gh *gqlHandler, boardType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(boardType),
		Args: graphql.FieldConfigArgument{
			"category": nonNull(graphql.String),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			category, err := categoryArg(p)
			if err != nil {
				return nil, err
			}
			boards, err := gh.svc.Notices(p.Context, ActorFrom(p.Context), category)
			if err != nil {
				return nil, fail(err)
			}
			return boardViews(boards), nil
		},
	}
}

func getCommentsQuery(gh *gqlHandler, commentType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(commentType),
		Args: graphql.FieldConfigArgument{
			"boardId": nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			boardID, err := idArg(p, "boardId")
			if err != nil {
				return nil, err
			}
			comments, err := gh.svc.Comments(p.Context, ActorFrom(p.Context), boardID)
			if err != nil {
				return nil, fail(err)
			}
			views := make([]commentView, 0, len(comments))
			for _, c := range comments {
				views = append(views, newCommentView(c))
			}
			return views, nil
		},
	}
}

func getMyBoardsQuery(gh *gqlHandler, boardType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: graphql.NewList(boardType),
		Args: graphql.FieldConfigArgument{
			"kind": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "board"},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			boards, err := gh.svc.MyBoards(p.Context, ActorFrom(p.Context), p.Args["kind"].(string))
			if err != nil {
				return nil, fail(err)
			}
			return boardViews(boards), nil
		},
	}
}

func getStatsQuery(gh *gqlHandler, statsType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: statsType,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			boards, users, err := gh.svc.Stats(p.Context)
			if err != nil {
				return nil, fail(err)
			}
			return statsView{Boards: boards, Users: users}, nil
		},
	}
}

func getLikeStatusQuery(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Args: graphql.FieldConfigArgument{
			"boardId": nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			boardID, err := idArg(p, "boardId")
			if err != nil {
				return nil, err
			}
			state, err := gh.svc.LikeStatus(p.Context, ActorFrom(p.Context), boardID)
			if err != nil {
				return nil, fail(err)
			}
			return state == model.Liked, nil
		},
	}
}

func getBoardImageURLQuery(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Args: graphql.FieldConfigArgument{
			"boardId": nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			boardID, err := idArg(p, "boardId")
			if err != nil {
				return nil, err
			}
			u, err := gh.svc.BoardImageURL(p.Context, ActorFrom(p.Context), boardID)
			if err != nil {
				return nil, fail(err)
			}
			return u.String(), nil
		},
	}
}

func getMeQuery(gh *gqlHandler, userType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: userType,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			user, err := gh.svc.MyInfo(p.Context, ActorFrom(p.Context))
			if err != nil {
				return nil, fail(err)
			}
			return newUserView(user), nil
		},
	}
}

func getUsersQuery(gh *gqlHandler, pageType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type:        pageType,
		Description: "Admin lookup of accounts by nickname fragment.",
		Args: graphql.FieldConfigArgument{
			"keyword": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
			"limit":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
			"offset":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			page := service.Page{Limit: p.Args["limit"].(int), Offset: p.Args["offset"].(int)}
			users, total, err := gh.svc.SearchUsers(p.Context, ActorFrom(p.Context), p.Args["keyword"].(string), page)
			if err != nil {
				return nil, fail(err)
			}
			views := make([]userView, 0, len(users))
			for _, u := range users {
				views = append(views, newUserView(u))
			}
			return userPage{Items: views, Total: total}, nil
		},
	}
}

func registerMutation(gh *gqlHandler, userType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: userType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewInputObject(
					graphql.InputObjectConfig{
						Name: "RegisterInput",
						Fields: graphql.InputObjectConfigFieldMap{
							"loginId":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
							"password":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
							"passwordCheck": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
							"nickname":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
						},
					},
				)),
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			str := func(k string) string { s, _ := input[k].(string); return s }
			user, err := gh.svc.Register(p.Context, service.Registration{
				LoginID:       str("loginId"),
				Password:      str("password"),
				PasswordCheck: str("passwordCheck"),
				Nickname:      str("nickname"),
			})
			if err != nil {
				return nil, fail(err)
			}
			return newUserView(user), nil
		},
	}
}

func deleteAccountMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Args: graphql.FieldConfigArgument{
			"password": nonNull(graphql.String),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			if err := gh.svc.DeleteUser(p.Context, ActorFrom(p.Context), p.Args["password"].(string)); err != nil {
				return nil, fail(err)
			}
			return true, nil
		},
	}
}

func editProfileMutation(gh *gqlHandler, userType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: userType,
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{
				Type: graphql.NewNonNull(graphql.NewInputObject(
					graphql.InputObjectConfig{
						Name: "ProfileInput",
						Fields: graphql.InputObjectConfigFieldMap{
							"nickname":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
							"currentPassword":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
							"newPassword":      &graphql.InputObjectFieldConfig{Type: graphql.String},
							"newPasswordCheck": &graphql.InputObjectFieldConfig{Type: graphql.String},
						},
					},
				)),
			},
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			input, _ := p.Args["input"].(map[string]interface{})
			str := func(k string) string { s, _ := input[k].(string); return s }
			user, err := gh.svc.EditProfile(p.Context, ActorFrom(p.Context), service.ProfileEdit{
				Nickname:         str("nickname"),
				CurrentPassword:  str("currentPassword"),
				NewPassword:      str("newPassword"),
				NewPasswordCheck: str("newPasswordCheck"),
			})
			if err != nil {
				return nil, fail(err)
			}
			return newUserView(user), nil
		},
	}
}

var boardInputType = graphql.NewInputObject(
	graphql.InputObjectConfig{
		Name: "BoardInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"category": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"body":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	},
)

func boardInputArg(p graphql.ResolveParams) (service.BoardInput, error) {
	input, _ := p.Args["input"].(map[string]interface{})
	raw, _ := input["category"].(string)
	category, err := model.ParseCategory(raw)
	if err != nil {
		return service.BoardInput{}, errors.New("unknown category")
	}
	title, _ := input["title"].(string)
	body, _ := input["body"].(string)
	return service.BoardInput{Category: category, Title: title, Body: body}, nil
}

func writeBoardMutation(gh *gqlHandler, boardType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: boardType,
		Args: graphql.FieldConfigArgument{
			"input": nonNull(boardInputType),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			in, err := boardInputArg(p)
			if err != nil {
				return nil, err
			}
			board, err := gh.svc.WriteBoard(p.Context, ActorFrom(p.Context), in)
			if err != nil {
				return nil, fail(err)
			}
			return NewBoardView(board), nil
		},
	}
}

func editBoardMutation(gh *gqlHandler, boardType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: boardType,
		Args: graphql.FieldConfigArgument{
			"id":    nonNull(graphql.ID),
			"input": nonNull(boardInputType),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			in, err := boardInputArg(p)
			if err != nil {
				return nil, err
			}
			board, err := gh.svc.EditBoard(p.Context, ActorFrom(p.Context), id, in)
			if err != nil {
				return nil, fail(err)
			}
			return NewBoardView(board), nil
		},
	}
}

func deleteBoardMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Boolean,
		Args: graphql.FieldConfigArgument{
			"category": nonNull(graphql.String),
			"id":       nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			category, err := categoryArg(p)
			if err != nil {
				return nil, err
			}
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			if err := gh.svc.DeleteBoard(p.Context, ActorFrom(p.Context), id, category); err != nil {
				return nil, fail(err)
			}
			return true, nil
		},
	}
}

func writeCommentMutation(gh *gqlHandler, commentType *graphql.Object) *graphql.Field {
	return &graphql.Field{
		Type: commentType,
		Args: graphql.FieldConfigArgument{
			"boardId": nonNull(graphql.ID),
			"body":    nonNull(graphql.String),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			boardID, err := idArg(p, "boardId")
			if err != nil {
				return nil, err
			}
			comment, err := gh.svc.WriteComment(p.Context, ActorFrom(p.Context), boardID, p.Args["body"].(string))
			if err != nil {
				return nil, fail(err)
			}
			return newCommentView(comment), nil
		},
	}
}

// editComment and deleteComment answer with the comment's board id.
func editCommentMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.ID,
		Args: graphql.FieldConfigArgument{
			"id":   nonNull(graphql.ID),
			"body": nonNull(graphql.String),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			boardID, err := gh.svc.EditComment(p.Context, ActorFrom(p.Context), id, p.Args["body"].(string))
			if err != nil {
				return nil, fail(err)
			}
			return formatID(boardID), nil
		},
	}
}

func deleteCommentMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.ID,
		Args: graphql.FieldConfigArgument{
			"id": nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			id, err := idArg(p, "id")
			if err != nil {
				return nil, err
			}
			boardID, err := gh.svc.DeleteComment(p.Context, ActorFrom(p.Context), id)
			if err != nil {
				return nil, fail(err)
			}
			return formatID(boardID), nil
		},
	}
}

func toggleLikeMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type:        graphql.Boolean,
		Description: "Flips the caller's like and returns whether the board is now liked.",
		Args: graphql.FieldConfigArgument{
			"boardId": nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			boardID, err := idArg(p, "boardId")
			if err != nil {
				return nil, err
			}
			state, err := gh.svc.ToggleLike(p.Context, ActorFrom(p.Context), boardID)
			if err != nil {
				return nil, fail(err)
			}
			return state == model.Liked, nil
		},
	}
}

func likeSetter(set func(gh *gqlHandler, p graphql.ResolveParams, boardID int64) (bool, error)) func(*gqlHandler) *graphql.Field {
	return func(gh *gqlHandler) *graphql.Field {
		return &graphql.Field{
			Type: graphql.Boolean,
			Args: graphql.FieldConfigArgument{
				"boardId": nonNull(graphql.ID),
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				boardID, err := idArg(p, "boardId")
				if err != nil {
					return nil, err
				}
				changed, err := set(gh, p, boardID)
				if err != nil {
					return nil, fail(err)
				}
				return changed, nil
			},
		}
	}
}

var addLikeMutation = likeSetter(func(gh *gqlHandler, p graphql.ResolveParams, boardID int64) (bool, error) {
	return gh.svc.AddLike(p.Context, ActorFrom(p.Context), boardID)
})

var removeLikeMutation = likeSetter(func(gh *gqlHandler, p graphql.ResolveParams, boardID int64) (bool, error) {
	return gh.svc.RemoveLike(p.Context, ActorFrom(p.Context), boardID)
})

func changeRoleMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Args: graphql.FieldConfigArgument{
			"userId": nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			userID, err := idArg(p, "userId")
			if err != nil {
				return nil, err
			}
			role, err := gh.svc.ChangeRole(p.Context, ActorFrom(p.Context), userID)
			if err != nil {
				return nil, fail(err)
			}
			return role.String(), nil
		},
	}
}

func blacklistMutation(gh *gqlHandler) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Args: graphql.FieldConfigArgument{
			"userId": nonNull(graphql.ID),
		},
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			userID, err := idArg(p, "userId")
			if err != nil {
				return nil, err
			}
			role, err := gh.svc.Blacklist(p.Context, ActorFrom(p.Context), userID)
			if err != nil {
				return nil, fail(err)
			}
			return role.String(), nil
		},
	}
}
