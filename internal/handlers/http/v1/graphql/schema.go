package graphql

import (
	"time"

	"github.com/graphql-go/graphql"
)

var DateTime = graphql.NewScalar(
	graphql.ScalarConfig{
		Name:        "DateTime",
		Description: "DateTime scalar type",
		Serialize: func(value interface{}) interface{} {
			switch v := value.(type) {
			case time.Time:
				return v.Format(time.RFC3339)
			case *time.Time:
				return v.Format(time.RFC3339)
			default:
				return nil
			}
		},
	},
)

func (gh *gqlHandler) initSchema() error {
	boardType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Board",
			Fields: graphql.Fields{
				"id":             &graphql.Field{Type: graphql.ID},
				"category":       &graphql.Field{Type: graphql.String},
				"ownerId":        &graphql.Field{Type: graphql.ID},
				"ownerNickname":  &graphql.Field{Type: graphql.String},
				"ownerRole":      &graphql.Field{Type: graphql.String},
				"title":          &graphql.Field{Type: graphql.String},
				"body":           &graphql.Field{Type: graphql.String},
				"likeCnt":        &graphql.Field{Type: graphql.Int},
				"commentCnt":     &graphql.Field{Type: graphql.Int},
				"hasImage":       &graphql.Field{Type: graphql.Boolean},
				"createdAt":      &graphql.Field{Type: DateTime},
				"lastModifiedAt": &graphql.Field{Type: DateTime},
			},
		},
	)

	boardPageType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "BoardPage",
			Fields: graphql.Fields{
				"items": &graphql.Field{Type: graphql.NewList(boardType)},
				"total": &graphql.Field{Type: graphql.Int},
			},
		},
	)

	commentType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Comment",
			Fields: graphql.Fields{
				"id":             &graphql.Field{Type: graphql.ID},
				"boardId":        &graphql.Field{Type: graphql.ID},
				"ownerId":        &graphql.Field{Type: graphql.ID},
				"ownerNickname":  &graphql.Field{Type: graphql.String},
				"body":           &graphql.Field{Type: graphql.String},
				"createdAt":      &graphql.Field{Type: DateTime},
				"lastModifiedAt": &graphql.Field{Type: DateTime},
			},
		},
	)

	userType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "User",
			Fields: graphql.Fields{
				"id":              &graphql.Field{Type: graphql.ID},
				"loginId":         &graphql.Field{Type: graphql.String},
				"nickname":        &graphql.Field{Type: graphql.String},
				"role":            &graphql.Field{Type: graphql.String},
				"receivedLikeCnt": &graphql.Field{Type: graphql.Int},
				"createdAt":       &graphql.Field{Type: DateTime},
			},
		},
	)

	userPageType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "UserPage",
			Fields: graphql.Fields{
				"items": &graphql.Field{Type: graphql.NewList(userType)},
				"total": &graphql.Field{Type: graphql.Int},
			},
		},
	)

	statsType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Stats",
			Fields: graphql.Fields{
				"boards": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
					Name: "BoardStats",
					Fields: graphql.Fields{
						"total":    countField(func(s statsView) int64 { return s.Boards.Total }),
						"notices":  countField(func(s statsView) int64 { return s.Boards.Notices }),
						"greeting": countField(func(s statsView) int64 { return s.Boards.Greeting }),
						"free":     countField(func(s statsView) int64 { return s.Boards.Free }),
						"gold":     countField(func(s statsView) int64 { return s.Boards.Gold }),
					},
				}), Resolve: passThrough},
				"users": &graphql.Field{Type: graphql.NewObject(graphql.ObjectConfig{
					Name: "UserStats",
					Fields: graphql.Fields{
						"active":    countField(func(s statsView) int64 { return s.Users.Active }),
						"bronze":    countField(func(s statsView) int64 { return s.Users.Bronze }),
						"silver":    countField(func(s statsView) int64 { return s.Users.Silver }),
						"gold":      countField(func(s statsView) int64 { return s.Users.Gold }),
						"admin":     countField(func(s statsView) int64 { return s.Users.Admin }),
						"blacklist": countField(func(s statsView) int64 { return s.Users.Blacklist }),
					},
				}), Resolve: passThrough},
			},
		},
	)

	queryType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"board":         getBoardQuery(gh, boardType),
				"boards":        getBoardsQuery(gh, boardPageType),
				"notices":       getNoticesQuery(gh, boardType),
				"comments":      getCommentsQuery(gh, commentType),
				"myBoards":      getMyBoardsQuery(gh, boardType),
				"stats":         getStatsQuery(gh, statsType),
				"likeStatus":    getLikeStatusQuery(gh),
				"boardImageUrl": getBoardImageURLQuery(gh),
				"me":            getMeQuery(gh, userType),
				"users":         getUsersQuery(gh, userPageType),
			},
		},
	)

	mutationType := graphql.NewObject(
		graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"register":      registerMutation(gh, userType),
				"deleteAccount": deleteAccountMutation(gh),
				"editProfile":   editProfileMutation(gh, userType),
				"writeBoard":    writeBoardMutation(gh, boardType),
				"editBoard":     editBoardMutation(gh, boardType),
				"deleteBoard":   deleteBoardMutation(gh),
				"writeComment":  writeCommentMutation(gh, commentType),
				"editComment":   editCommentMutation(gh),
				"deleteComment": deleteCommentMutation(gh),
				"toggleLike":    toggleLikeMutation(gh),
				"addLike":       addLikeMutation(gh),
				"removeLike":    removeLikeMutation(gh),
				"changeRole":    changeRoleMutation(gh),
				"blacklist":     blacklistMutation(gh),
			},
		},
	)

	schemaConfig := graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	}

	schema, err := graphql.NewSchema(schemaConfig)
	if err != nil {
		return err
	}
	gh.schema = schema

	return nil
}

func passThrough(p graphql.ResolveParams) (interface{}, error) {
	return p.Source, nil
}

func countField(get func(statsView) int64) *graphql.Field {
	return &graphql.Field{
		Type: graphql.Int,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			s, _ := p.Source.(statsView)
			return get(s), nil
		},
	}
}
