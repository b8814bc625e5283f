package controllers_test

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/pkg/testkit"
)

func supplierForm(name string) url.Values {
	return url.Values{
		"type":           {"1"},
		"name":           {name},
		"phone":          {"0171000000"},
		"contact_person": {"Rahim"},
		"website":        {"https://delta.example.com"},
	}
}

func TestSupplierCRUD(t *testing.T) {
	app, _ := seeded(t)
	admin := app.As(t, "admin")

	rec := admin.PostForm("/suppliers/edit", supplierForm("Delta Traders"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/suppliers", rec.Header().Get("Location"))
	body := admin.Get("/suppliers").Body.String()
	assert.Contains(t, body, "Supplier &#34;Delta Traders&#34; created successfully.")
	assert.Contains(t, body, "Wholesaler")

	var s models.Supplier
	require.NoError(t, app.DB.Where("name = ?", "Delta Traders").First(&s).Error)

	form := supplierForm("Delta Traders Ltd")
	form.Set("type", "2")
	rec = admin.PostForm(fmt.Sprintf("/suppliers/edit/%d", s.ID), form)
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.NoError(t, app.DB.First(&s, s.ID).Error)
	assert.Equal(t, models.Factory, s.Type)
	assert.Equal(t, "Delta Traders Ltd", s.Name)

	rec = admin.PostForm(fmt.Sprintf("/suppliers/delete/%d", s.ID), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, admin.Get("/suppliers").Body.String(), "Supplier &#34;Delta Traders Ltd&#34; deleted successfully.")
}

func TestDuplicateSupplierLeavesOneRow(t *testing.T) {
	app, _ := seeded(t)
	admin := app.As(t, "admin")

	require.Equal(t, http.StatusSeeOther, admin.PostForm("/suppliers/edit", supplierForm("Delta")).Code)
	rec := admin.PostForm("/suppliers/edit", supplierForm("Delta"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "That name is already taken.")

	var n int64
	require.NoError(t, app.DB.Model(&models.Supplier{}).Where("name = ?", "Delta").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestSupplierValidationAndJSON(t *testing.T) {
	app, _ := seeded(t)
	admin := app.As(t, "admin")

	form := supplierForm("Bad Site")
	form.Set("website", "not a url")
	form.Set("type", "5")
	rec := admin.PostForm("/suppliers/edit", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "The website must be a valid URL.")

	admin.JSON = true
	rec = admin.PostForm("/suppliers/edit", supplierForm("Json Co"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := testkit.DecodeEnvelope(t, rec)
	assert.Contains(t, string(env.Data), `"name":"Json Co"`)

	rec = admin.Get("/suppliers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(testkit.DecodeEnvelope(t, rec).Data), "Acme Mills")
}

func TestSupplierDeleteInUse(t *testing.T) {
	app, c := seeded(t)
	require.NoError(t, app.DB.Create(&models.Product{
		Name: "Oxford", StyleID: c.Style.ID, CategoryID: c.Category.ID, BrandID: c.Brand.ID,
		MaterialID: c.Material.ID, SupplierID: c.Supplier.ID,
	}).Error)
	admin := app.As(t, "admin")

	rec := admin.PostForm(fmt.Sprintf("/suppliers/delete/%d", c.Supplier.ID), nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, admin.Get("/suppliers").Body.String(), "Supplier &#34;Acme Mills&#34; still has products and cannot be deleted.")
}

func TestSupplierCommitConflict(t *testing.T) {
	app, _ := seeded(t)
	admin := app.As(t, "admin")
	raceFor := func(name string) {
		testkit.BeforeNextCreate(t, app.DB, "suppliers", func(tx *gorm.DB) {
			require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).
				Create(&models.Supplier{Type: models.Factory, Name: name, Phone: "2"}).Error)
		})
	}

	raceFor("Delta")
	rec := admin.PostForm("/suppliers/edit", supplierForm("Delta"))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/suppliers", rec.Header().Get("Location"))
	assert.Contains(t, admin.Get("/suppliers").Body.String(),
		"Failed to save Supplier. The name &#39;Delta&#39; is likely already taken.")

	raceFor("Echo")
	admin.JSON = true
	rec = admin.PostForm("/suppliers/edit", supplierForm("Echo"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "The name 'Echo' is likely already taken.")

	var n int64
	require.NoError(t, app.DB.Model(&models.Supplier{}).Where("name IN ?", []string{"Delta", "Echo"}).Count(&n).Error)
	assert.Zero(t, n)
}
