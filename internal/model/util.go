package model

// MigrateAble lists the models in foreign key order: users and files first,
// then jobs that reference recruiters, then applications that reference both.
var MigrateAble = []interface{}{
	&User{},
	&File{},
	&Job{},
	&Application{},
}
