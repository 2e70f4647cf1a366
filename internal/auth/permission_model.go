package auth

// 控制台关系
const (
	RelationAdmin  = "admin"
	RelationWorker = "worker"
)

// GetPermissionModel 获取 OpenFGA 权限模型定义
// admin 可以创建、分配和审核任务,worker 可以开始和提交分配给自己的任务
func GetPermissionModel() string {
	return `model
  schema 1.1

type user

type console
  relations
    define admin: [user]
    define worker: [user] or admin`
}
