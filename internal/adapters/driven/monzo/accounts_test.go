package monzo

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

func TestClient_Accounts(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts", r.URL.Path)
		fmt.Fprint(w, `{"accounts":[
			{"id":"acc_1","description":"Current Account","type":"uk_retail","closed":false},
			{"id":"acc_2","description":"Joint Account","type":"uk_retail_joint","closed":true}
		]}`)
	})

	accounts, err := c.Accounts(context.Background())

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "acc_1", accounts[0].ID)
	assert.Equal(t, "uk_retail", accounts[0].Type)
	assert.False(t, accounts[0].Closed)
	assert.True(t, accounts[1].Closed)
}

func TestClient_WhoAmI(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ping/whoami", r.URL.Path)
		fmt.Fprint(w, `{"authenticated":true,"client_id":"oauth2client_123","user_id":"user_1"}`)
	})

	userID, err := c.WhoAmI(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "user_1", userID)
}

func TestClient_WhoAmI_NotAuthenticated(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"authenticated":false}`)
	})

	_, err := c.WhoAmI(context.Background())
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}
